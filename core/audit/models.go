package audit

import (
	"time"

	"github.com/trezcool/alama/core"
)

// Actions
const (
	ActionCreate      = "create"
	ActionUpdate      = "update"
	ActionDelete      = "delete"
	ActionGradeImport = "grade_import"
)

// Entry is one append-only audit record; entries are never updated.
type Entry struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	ObjectType string    `json:"object_type"`
	ObjectID   string    `json:"object_id"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

type QueryFilter struct {
	ActorID    string `query:"actor_id"`
	Action     string `query:"action"`
	ObjectType string `query:"object_type"`
	ObjectID   string `query:"object_id"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.ActorID == "" && qf.Action == "" && qf.ObjectType == "" && qf.ObjectID == ""
}

func (qf *QueryFilter) Clean() {
	qf.Action = core.CleanString(qf.Action, true /* lower */)
	qf.ObjectType = core.CleanString(qf.ObjectType, true /* lower */)
}
