// internal/adapters/out/firestore/paymentIntent_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	checkoutdom "sodistore/internal/domain/checkout"
)

// PaymentIntentRepositoryFS implements checkout.IntentRepository.
//
// Collection design:
// - collection: paymentIntents
// - docId: snapshotId (one intent per snapshot)
// - "status"/"openedAt" indexed for the reconciler queries
type PaymentIntentRepositoryFS struct {
	Client *firestore.Client
}

func NewPaymentIntentRepositoryFS(client *firestore.Client) *PaymentIntentRepositoryFS {
	return &PaymentIntentRepositoryFS{Client: client}
}

func (r *PaymentIntentRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("paymentIntents")
}

type intentDoc struct {
	IntentID   string    `firestore:"intentId"`
	AccountID  string    `firestore:"accountId"`
	Amount     int       `firestore:"amount"`
	Currency   string    `firestore:"currency"`
	Status     string    `firestore:"status"`
	GatewayRef string    `firestore:"gatewayRef,omitempty"`
	OpenedAt   time.Time `firestore:"openedAt"`
	UpdatedAt  time.Time `firestore:"updatedAt"`
}

func intentDocFromDomain(pi checkoutdom.PaymentIntent) intentDoc {
	return intentDoc{
		IntentID:   pi.IntentID,
		AccountID:  pi.AccountID,
		Amount:     pi.Amount,
		Currency:   pi.Currency,
		Status:     string(pi.Status),
		GatewayRef: pi.GatewayRef,
		OpenedAt:   pi.OpenedAt,
		UpdatedAt:  pi.UpdatedAt,
	}
}

func (d intentDoc) toDomain(snapshotID string) checkoutdom.PaymentIntent {
	return checkoutdom.PaymentIntent{
		IntentID:   d.IntentID,
		SnapshotID: snapshotID,
		AccountID:  d.AccountID,
		Amount:     d.Amount,
		Currency:   d.Currency,
		Status:     checkoutdom.IntentStatus(d.Status),
		GatewayRef: d.GatewayRef,
		OpenedAt:   d.OpenedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func (r *PaymentIntentRepositoryFS) GetBySnapshotID(ctx context.Context, snapshotID string) (checkoutdom.PaymentIntent, error) {
	if r == nil || r.Client == nil {
		return checkoutdom.PaymentIntent{}, errors.New("payment_intent_repository_fs: firestore client is nil")
	}

	sid := strings.TrimSpace(snapshotID)
	if sid == "" {
		return checkoutdom.PaymentIntent{}, checkoutdom.ErrIntentNotFound
	}

	snap, err := r.col().Doc(sid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return checkoutdom.PaymentIntent{}, checkoutdom.ErrIntentNotFound
		}
		return checkoutdom.PaymentIntent{}, err
	}

	var doc intentDoc
	if err := snap.DataTo(&doc); err != nil {
		return checkoutdom.PaymentIntent{}, err
	}
	return doc.toDomain(snap.Ref.ID), nil
}

func (r *PaymentIntentRepositoryFS) Create(ctx context.Context, pi checkoutdom.PaymentIntent) error {
	if r == nil || r.Client == nil {
		return errors.New("payment_intent_repository_fs: firestore client is nil")
	}
	if strings.TrimSpace(pi.SnapshotID) == "" {
		return checkoutdom.ErrInvalidIntent
	}
	_, err := r.col().Doc(pi.SnapshotID).Create(ctx, intentDocFromDomain(pi))
	return err
}

func (r *PaymentIntentRepositoryFS) Save(ctx context.Context, pi checkoutdom.PaymentIntent) error {
	if r == nil || r.Client == nil {
		return errors.New("payment_intent_repository_fs: firestore client is nil")
	}
	if strings.TrimSpace(pi.SnapshotID) == "" {
		return checkoutdom.ErrInvalidIntent
	}
	_, err := r.col().Doc(pi.SnapshotID).Set(ctx, intentDocFromDomain(pi))
	return err
}

func (r *PaymentIntentRepositoryFS) ListOpenedBefore(ctx context.Context, cutoff time.Time) ([]checkoutdom.PaymentIntent, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("payment_intent_repository_fs: firestore client is nil")
	}

	it := r.col().
		Where("status", "==", string(checkoutdom.IntentOpened)).
		Where("openedAt", "<", cutoff).
		Documents(ctx)
	defer it.Stop()

	return r.collect(it)
}

func (r *PaymentIntentRepositoryFS) ListSucceededUnconsumed(ctx context.Context) ([]checkoutdom.PaymentIntent, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("payment_intent_repository_fs: firestore client is nil")
	}

	it := r.col().
		Where("status", "==", string(checkoutdom.IntentSucceeded)).
		Documents(ctx)
	defer it.Stop()

	return r.collect(it)
}

func (r *PaymentIntentRepositoryFS) collect(it *firestore.DocumentIterator) ([]checkoutdom.PaymentIntent, error) {
	var out []checkoutdom.PaymentIntent
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		var doc intentDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toDomain(snap.Ref.ID))
	}
	return out, nil
}
