package service

import (
	"context"

	"github.com/google/uuid"

	"caseprocessor/internal/cases/models"
	"caseprocessor/pkg/platform/outbox"
)

// Store is the case, link, audit and outbox persistence used by the handlers.
// Every method joins the transaction carried in ctx. Lookups return an error
// wrapping sentinel.ErrNotFound when nothing matches; inserts of an existing
// key wrap sentinel.ErrConflict.
type Store interface {
	GetCase(ctx context.Context, id uuid.UUID) (*models.Case, error)
	// LockCase reads the case and holds an exclusive row lock until the
	// surrounding transaction ends.
	LockCase(ctx context.Context, id uuid.UUID) (*models.Case, error)
	CaseExists(ctx context.Context, id uuid.UUID) (bool, error)
	InsertCase(ctx context.Context, c *models.Case) error
	UpdateCase(ctx context.Context, c *models.Case) error

	GetLinkByQID(ctx context.Context, qid string) (*models.UacQidLink, error)
	ListLinksByCase(ctx context.Context, caseID uuid.UUID) ([]*models.UacQidLink, error)
	SaveLink(ctx context.Context, link *models.UacQidLink) error

	InsertEvent(ctx context.Context, event *models.Event) error

	AppendOutbox(ctx context.Context, msg *outbox.Message) error
}

// TxRunner makes a handler's mutation, audit rows and outbound events one atomic unit.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReferenceGenerator hands out human-facing case references. Gaps are allowed.
type ReferenceGenerator interface {
	Next(ctx context.Context) (int64, error)
}
