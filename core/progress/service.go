package progress

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
)

var ErrNotFound = errors.New("progress record not found")

type (
	Repository interface {
		// UpsertRecord inserts or updates the (StudentID, AssignmentID) cell.
		UpsertRecord(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error)
		QueryRecordsByClass(ctx context.Context, classID string, exec ...core.DBExecutor) ([]Record, error)
		QueryRecordsByStudent(ctx context.Context, classID, studentID string, exec ...core.DBExecutor) ([]Record, error)
		GetRecord(ctx context.Context, studentID, assignmentID string, exec ...core.DBExecutor) (Record, error)
	}

	Service struct {
		repo   Repository
		broker *Broker
	}
)

func NewService(repo Repository, broker *Broker) *Service {
	return &Service{repo: repo, broker: broker}
}

func (svc *Service) Broker() *Broker { return svc.broker }

// Set upserts one progress cell and notifies class subscribers.
// actorID identifies who made the change (user or import run).
func (svc *Service) Set(ctx context.Context, sr SetRecord, actorID string) (Record, error) {
	now := time.Now().UTC()
	rec := Record{
		ClassID:      sr.ClassID,
		StudentID:    sr.StudentID,
		AssignmentID: sr.AssignmentID,
		Value:        sr.Value,
		UpdatedAt:    now,
	}
	rec, err := svc.repo.UpsertRecord(ctx, rec)
	if err != nil {
		return Record{}, errors.Wrap(err, "upserting progress record")
	}

	svc.broker.Publish(Event{
		ClassID:      rec.ClassID,
		StudentID:    rec.StudentID,
		AssignmentID: rec.AssignmentID,
		Value:        rec.Value,
		ActorID:      actorID,
		At:           now,
	})
	return rec, nil
}

func (svc *Service) QueryByClass(ctx context.Context, classID string) ([]Record, error) {
	return svc.repo.QueryRecordsByClass(ctx, classID)
}

func (svc *Service) QueryByStudent(ctx context.Context, classID, studentID string) ([]Record, error) {
	return svc.repo.QueryRecordsByStudent(ctx, classID, studentID)
}

func (svc *Service) Get(ctx context.Context, studentID, assignmentID string) (Record, error) {
	return svc.repo.GetRecord(ctx, studentID, assignmentID)
}
