package store

import (
	"context"

	"github.com/hibiken/asynq"

	"helpdesk/internal/models"
)

// --- Job Client ---

type JobClient interface {
	Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	// EnqueueRetrain schedules a model retrain and returns the job id.
	EnqueueRetrain(ctx context.Context) (string, error)
	Close() error
}

// --- Ticket Store ---

type TicketStore interface {
	// ListResolvedTickets returns tickets whose status is resolved (any case),
	// with the category name joined in.
	ListResolvedTickets(ctx context.Context) ([]*models.ResolvedTicket, error)
	CountTickets(ctx context.Context) (total int, resolved int, err error)
	CategoryStats(ctx context.Context) ([]models.CategoryStat, error)
	GetTicketsByIDs(ctx context.Context, ids []int64) ([]*models.Ticket, error)
	// RecentTickets returns up to limit tickets, newest first.
	RecentTickets(ctx context.Context, limit int) ([]*models.Ticket, error)

	Ping(ctx context.Context) error
	Close() error
}

// --- Artifact Store ---

// ArtifactStore holds named binary blobs such as serialized models.
type ArtifactStore interface {
	Exists(ctx context.Context, name string) (bool, error)
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	// WriteAll stores every blob or none of them.
	WriteAll(ctx context.Context, blobs map[string][]byte) error
}
