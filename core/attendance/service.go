package attendance

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
)

var ErrNotFound = errors.New("attendance record not found")

type (
	Repository interface {
		CreateRecord(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error)
		QueryRecordsByClass(ctx context.Context, classID string, exec ...core.DBExecutor) ([]Record, error)
		DeleteRecord(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Record(ctx context.Context, classID string, nr NewRecord) (Record, error) {
	rec := Record{
		ClassID:    classID,
		StudentID:  nr.StudentID,
		Date:       nr.Date,
		Status:     nr.Status,
		Engagement: nr.Engagement,
		Note:       nr.Note,
		CreatedAt:  time.Now().UTC(),
	}
	return svc.repo.CreateRecord(ctx, rec)
}

func (svc *Service) QueryByClass(ctx context.Context, classID string) ([]Record, error) {
	return svc.repo.QueryRecordsByClass(ctx, classID)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteRecord(ctx, id)
}

// Summarize aggregates attendance counts and mean engagement per student,
// ordered by student ID for stable output.
func (svc *Service) Summarize(ctx context.Context, classID string) ([]Summary, error) {
	recs, err := svc.repo.QueryRecordsByClass(ctx, classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance records")
	}

	type agg struct {
		Summary
		engagementSum int
		count         int
	}
	byStudent := make(map[string]*agg)
	for _, rec := range recs {
		a, ok := byStudent[rec.StudentID]
		if !ok {
			a = &agg{Summary: Summary{StudentID: rec.StudentID}}
			byStudent[rec.StudentID] = a
		}
		switch rec.Status {
		case StatusPresent:
			a.Present++
		case StatusAbsent:
			a.Absent++
		case StatusLate:
			a.Late++
		case StatusExcused:
			a.Excused++
		}
		a.engagementSum += rec.Engagement
		a.count++
	}

	summaries := make([]Summary, 0, len(byStudent))
	for _, a := range byStudent {
		if a.count > 0 {
			a.MeanEngagement = float64(a.engagementSum) / float64(a.count)
		}
		summaries = append(summaries, a.Summary)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].StudentID < summaries[j].StudentID })
	return summaries, nil
}
