package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/alama/core"
)

type repoStub struct {
	recs []Record
}

func (r *repoStub) CreateRecord(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error) {
	r.recs = append(r.recs, rec)
	return rec, nil
}
func (r *repoStub) QueryRecordsByClass(ctx context.Context, classID string, exec ...core.DBExecutor) ([]Record, error) {
	return r.recs, nil
}
func (r *repoStub) DeleteRecord(ctx context.Context, id string, exec ...core.DBExecutor) error {
	return nil
}

func TestSummarize(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2023, time.September, d, 0, 0, 0, 0, time.UTC) }
	repo := &repoStub{recs: []Record{
		{ClassID: "c1", StudentID: "s1", Date: day(1), Status: StatusPresent, Engagement: 4},
		{ClassID: "c1", StudentID: "s1", Date: day(2), Status: StatusLate, Engagement: 2},
		{ClassID: "c1", StudentID: "s1", Date: day(3), Status: StatusPresent, Engagement: 3},
		{ClassID: "c1", StudentID: "s2", Date: day(1), Status: StatusAbsent},
		{ClassID: "c1", StudentID: "s2", Date: day(2), Status: StatusExcused},
	}}
	svc := NewService(repo)

	summaries, err := svc.Summarize(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Summarize(): %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("len = %d; want 2", len(summaries))
	}

	s1 := summaries[0]
	if s1.StudentID != "s1" || s1.Present != 2 || s1.Late != 1 || s1.Absent != 0 {
		t.Errorf("s1 summary = %+v", s1)
	}
	if s1.MeanEngagement != 3 {
		t.Errorf("s1 mean engagement = %v; want 3", s1.MeanEngagement)
	}

	s2 := summaries[1]
	if s2.StudentID != "s2" || s2.Absent != 1 || s2.Excused != 1 || s2.MeanEngagement != 0 {
		t.Errorf("s2 summary = %+v", s2)
	}
}
