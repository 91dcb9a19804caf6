package recordstore

import "context"

// Document is one record from the customer's namespace: a store-assigned id
// plus the raw field map, preserving processor passthrough fields untyped.
type Document struct {
	ID   string
	Data map[string]any
}

// StringField returns the named field when it is a non-empty string.
func (d Document) StringField(key string) string {
	if d.Data == nil {
		return ""
	}
	if value, ok := d.Data[key].(string); ok {
		return value
	}
	return ""
}

// SnapshotFunc receives the full current ordered set of documents on every
// change, never a diff. The first delivery happens immediately upon
// subscription, with an empty set when no documents exist.
type SnapshotFunc func(docs []Document)

// CancelFunc tears a subscription down. It is idempotent, and no callback is
// delivered after it returns.
type CancelFunc func()

// Store is the typed facade over the shared document store for one
// customer's payment_methods and payments sub-collections.
type Store interface {
	CustomerProfile(ctx context.Context, customerID string) (map[string]any, error)
	SubscribePaymentMethods(ctx context.Context, customerID string, fn SnapshotFunc) (CancelFunc, error)
	SubscribePayments(ctx context.Context, customerID string, fn SnapshotFunc) (CancelFunc, error)
	CreatePaymentMethod(ctx context.Context, customerID string, fields map[string]any) (string, error)
	CreatePayment(ctx context.Context, customerID string, fields map[string]any) (string, error)
	MergePayment(ctx context.Context, customerID, paymentID string, fields map[string]any) error
}
