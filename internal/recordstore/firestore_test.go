package recordstore

import (
	"context"
	"testing"

	"github.com/angelmondragon/payportal-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/payportal-backend/pkg/errors"
)

func TestNewFirestoreStoreRequiresProjectID(t *testing.T) {
	_, err := NewFirestoreStore(context.Background(), FirestoreParams{
		Firestore: config.FirestoreConfig{CustomersCollection: "stripe_customers"},
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewFirestoreStoreRequiresCustomersCollection(t *testing.T) {
	_, err := NewFirestoreStore(context.Background(), FirestoreParams{
		GCP: config.GCPConfig{ProjectID: "demo"},
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSubscriptionDeliversNothingAfterStop(t *testing.T) {
	delivered := 0
	sub := &subscription{fn: func(docs []Document) { delivered++ }}

	sub.deliver([]Document{{ID: "a"}})
	sub.stop()
	sub.deliver([]Document{{ID: "b"}})

	if delivered != 1 {
		t.Fatalf("expected exactly one delivery, got %d", delivered)
	}
}

func TestDocumentStringField(t *testing.T) {
	doc := Document{ID: "d", Data: map[string]any{"status": "new", "amount": int64(5)}}
	if doc.StringField("status") != "new" {
		t.Fatal("expected string field returned")
	}
	if doc.StringField("amount") != "" {
		t.Fatal("non-string fields must read as empty")
	}
	if (Document{}).StringField("status") != "" {
		t.Fatal("nil data must read as empty")
	}
}
