package audit

import (
	"context"
	"time"

	"github.com/trezcool/alama/core"
)

type (
	Repository interface {
		CreateEntry(ctx context.Context, e Entry, exec ...core.DBExecutor) (Entry, error)
		QueryEntries(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Entry, error)
	}

	Service struct {
		repo   Repository
		logger core.Logger
	}
)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Log records an audit entry; failures are logged, never propagated —
// an audit miss must not fail the operation being audited.
func (svc *Service) Log(ctx context.Context, actorID, action, objectType, objectID, detail string) {
	e := Entry{
		ActorID:    actorID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objectID,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := svc.repo.CreateEntry(ctx, e); err != nil {
		svc.logger.Error("recording audit entry", err)
	}
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Entry, error) {
	if ordering == nil {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	return svc.repo.QueryEntries(ctx, filter, ordering)
}
