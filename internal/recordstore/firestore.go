package recordstore

import (
	"context"
	"strings"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/payportal-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/payportal-backend/pkg/errors"
	"github.com/angelmondragon/payportal-backend/pkg/logger"
)

const (
	paymentMethodsCollection = "payment_methods"
	paymentsCollection       = "payments"
)

// FirestoreParams groups dependencies for the Firestore-backed store.
type FirestoreParams struct {
	GCP       config.GCPConfig
	Firestore config.FirestoreConfig
	Logger    *logger.Logger
}

// FirestoreStore implements Store on top of Firestore subcollections under
// the configured customers collection.
type FirestoreStore struct {
	client *firestore.Client
	root   string
	logg   *logger.Logger

	mu     sync.Mutex
	closed bool
}

// NewFirestoreStore creates the Firestore client and verifies configuration.
func NewFirestoreStore(ctx context.Context, params FirestoreParams) (*FirestoreStore, error) {
	projectID := strings.TrimSpace(params.GCP.ProjectID)
	if projectID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gcp project id is required")
	}
	root := strings.TrimSpace(params.Firestore.CustomersCollection)
	if root == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customers collection is required")
	}

	client, err := firestore.NewClient(ctx, projectID, clientOptions(params.GCP)...)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "creating firestore client")
	}

	if params.Logger != nil {
		params.Logger.Info(ctx, "firestore client initialized")
	}

	return &FirestoreStore{
		client: client,
		root:   root,
		logg:   params.Logger,
	}, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}
	return opts
}

// CustomerProfile loads the customer's profile document.
func (s *FirestoreStore) CustomerProfile(ctx context.Context, customerID string) (map[string]any, error) {
	if err := s.guard(customerID); err != nil {
		return nil, err
	}
	snap, err := s.client.Collection(s.root).Doc(customerID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "load customer profile")
	}
	return snap.Data(), nil
}

// SubscribePaymentMethods registers a snapshot listener on the customer's
// payment methods.
func (s *FirestoreStore) SubscribePaymentMethods(ctx context.Context, customerID string, fn SnapshotFunc) (CancelFunc, error) {
	return s.subscribe(ctx, customerID, paymentMethodsCollection, fn)
}

// SubscribePayments registers a snapshot listener on the customer's payments.
func (s *FirestoreStore) SubscribePayments(ctx context.Context, customerID string, fn SnapshotFunc) (CancelFunc, error) {
	return s.subscribe(ctx, customerID, paymentsCollection, fn)
}

// CreatePaymentMethod appends a payment method document; the id is
// store-assigned.
func (s *FirestoreStore) CreatePaymentMethod(ctx context.Context, customerID string, fields map[string]any) (string, error) {
	return s.create(ctx, customerID, paymentMethodsCollection, fields)
}

// CreatePayment appends a payment document; the id is store-assigned.
func (s *FirestoreStore) CreatePayment(ctx context.Context, customerID string, fields map[string]any) (string, error) {
	return s.create(ctx, customerID, paymentsCollection, fields)
}

// MergePayment merge-writes fields into an existing payment document. Fields
// absent from the update are left untouched.
func (s *FirestoreStore) MergePayment(ctx context.Context, customerID, paymentID string, fields map[string]any) error {
	if err := s.guard(customerID); err != nil {
		return err
	}
	if strings.TrimSpace(paymentID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	col := s.client.Collection(s.root).Doc(customerID).Collection(paymentsCollection)
	if _, err := col.Doc(paymentID).Set(ctx, fields, firestore.MergeAll); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "merge payment document")
	}
	return nil
}

// Close releases the Firestore client. Active subscriptions end when their
// contexts are canceled.
func (s *FirestoreStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.client.Close()
}

func (s *FirestoreStore) guard(customerID string) error {
	if s == nil || s.client == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "firestore store not initialized")
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return pkgerrors.New(pkgerrors.CodeStoreUnavailable, "firestore store is closed")
	}
	if strings.TrimSpace(customerID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	return nil
}

func (s *FirestoreStore) create(ctx context.Context, customerID, collection string, fields map[string]any) (string, error) {
	if err := s.guard(customerID); err != nil {
		return "", err
	}
	col := s.client.Collection(s.root).Doc(customerID).Collection(collection)
	ref, _, err := col.Add(ctx, fields)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, "append document")
	}
	return ref.ID, nil
}

func (s *FirestoreStore) subscribe(ctx context.Context, customerID, collection string, fn SnapshotFunc) (CancelFunc, error) {
	if err := s.guard(customerID); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "snapshot callback is required")
	}

	subCtx, cancelCtx := context.WithCancel(ctx)
	col := s.client.Collection(s.root).Doc(customerID).Collection(collection)
	it := col.Snapshots(subCtx)

	sub := &subscription{fn: fn}
	go sub.pump(subCtx, it, s.logg)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			sub.stop()
			cancelCtx()
			it.Stop()
		})
	}
	return cancel, nil
}

type subscription struct {
	mu     sync.Mutex
	closed bool
	fn     SnapshotFunc
}

func (s *subscription) pump(ctx context.Context, it *firestore.QuerySnapshotIterator, logg *logger.Logger) {
	for {
		snap, err := it.Next()
		if err != nil {
			if logg != nil && ctx.Err() == nil && status.Code(err) != codes.Canceled {
				logg.Error(ctx, "snapshot stream ended", err)
			}
			return
		}
		docs, err := documentsFromSnapshot(snap)
		if err != nil {
			if logg != nil {
				logg.Error(ctx, "decode snapshot documents", err)
			}
			continue
		}
		s.deliver(docs)
	}
}

// deliver holds the subscription lock while invoking the callback so that a
// completed cancel is never followed by another delivery.
func (s *subscription) deliver(docs []Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.fn(docs)
}

func (s *subscription) stop() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func documentsFromSnapshot(snap *firestore.QuerySnapshot) ([]Document, error) {
	docs := []Document{}
	iter := snap.Documents
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{ID: doc.Ref.ID, Data: doc.Data()})
	}
}
