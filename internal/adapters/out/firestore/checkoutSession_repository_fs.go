// internal/adapters/out/firestore/checkoutSession_repository_fs.go
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

// CheckoutSessionRepositoryFS implements checkout.SessionRepository.
//
// Collection design:
// - collection: checkoutSessions
// - docId: snapshotId
// - "accountId"/"terminal" indexed for the single-flight query
type CheckoutSessionRepositoryFS struct {
	Client *firestore.Client
}

func NewCheckoutSessionRepositoryFS(client *firestore.Client) *CheckoutSessionRepositoryFS {
	return &CheckoutSessionRepositoryFS{Client: client}
}

func (r *CheckoutSessionRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("checkoutSessions")
}

type sessionDoc struct {
	AccountID   string    `firestore:"accountId"`
	Method      string    `firestore:"method"`
	State       string    `firestore:"state"`
	Terminal    bool      `firestore:"terminal"`
	OrderID     string    `firestore:"orderId,omitempty"`
	FailureKind string    `firestore:"failureKind,omitempty"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func sessionDocFromDomain(s checkoutdom.Session) sessionDoc {
	return sessionDoc{
		AccountID:   s.AccountID,
		Method:      string(s.Method),
		State:       string(s.State),
		Terminal:    s.State.Terminal(),
		OrderID:     s.OrderID,
		FailureKind: string(s.FailureKind),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func (d sessionDoc) toDomain(snapshotID string) checkoutdom.Session {
	return checkoutdom.Session{
		SnapshotID:  snapshotID,
		AccountID:   d.AccountID,
		Method:      checkoutdom.Method(d.Method),
		State:       checkoutdom.State(d.State),
		OrderID:     d.OrderID,
		FailureKind: checkoutdom.FailureKind(d.FailureKind),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (r *CheckoutSessionRepositoryFS) GetBySnapshotID(ctx context.Context, snapshotID string) (checkoutdom.Session, error) {
	if r == nil || r.Client == nil {
		return checkoutdom.Session{}, errors.New("checkout_session_repository_fs: firestore client is nil")
	}

	sid := strings.TrimSpace(snapshotID)
	if sid == "" {
		return checkoutdom.Session{}, checkoutdom.ErrSessionNotFound
	}

	snap, err := r.col().Doc(sid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return checkoutdom.Session{}, checkoutdom.ErrSessionNotFound
		}
		return checkoutdom.Session{}, err
	}

	var doc sessionDoc
	if err := snap.DataTo(&doc); err != nil {
		return checkoutdom.Session{}, err
	}
	return doc.toDomain(snap.Ref.ID), nil
}

func (r *CheckoutSessionRepositoryFS) GetActiveByAccountID(ctx context.Context, accountID string) (checkoutdom.Session, error) {
	if r == nil || r.Client == nil {
		return checkoutdom.Session{}, errors.New("checkout_session_repository_fs: firestore client is nil")
	}

	aid := strings.TrimSpace(accountID)
	if aid == "" {
		return checkoutdom.Session{}, checkoutdom.ErrSessionNotFound
	}

	it := r.col().
		Where("accountId", "==", aid).
		Where("terminal", "==", false).
		Limit(1).
		Documents(ctx)
	defer it.Stop()

	snap, err := it.Next()
	if err != nil {
		if errors.Is(err, iterator.Done) {
			return checkoutdom.Session{}, checkoutdom.ErrSessionNotFound
		}
		return checkoutdom.Session{}, err
	}

	var doc sessionDoc
	if err := snap.DataTo(&doc); err != nil {
		return checkoutdom.Session{}, err
	}
	return doc.toDomain(snap.Ref.ID), nil
}

func (r *CheckoutSessionRepositoryFS) Create(ctx context.Context, s checkoutdom.Session) error {
	if r == nil || r.Client == nil {
		return errors.New("checkout_session_repository_fs: firestore client is nil")
	}
	if strings.TrimSpace(s.SnapshotID) == "" {
		return checkoutdom.ErrInvalidSession
	}
	_, err := r.col().Doc(s.SnapshotID).Create(ctx, sessionDocFromDomain(s))
	return err
}

func (r *CheckoutSessionRepositoryFS) Save(ctx context.Context, s checkoutdom.Session) error {
	if r == nil || r.Client == nil {
		return errors.New("checkout_session_repository_fs: firestore client is nil")
	}
	if strings.TrimSpace(s.SnapshotID) == "" {
		return checkoutdom.ErrInvalidSession
	}
	_, err := r.col().Doc(s.SnapshotID).Set(ctx, sessionDocFromDomain(s))
	return err
}
