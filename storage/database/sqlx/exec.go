package sqlxrepos

import (
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/alama/core"
)

// queryExecer is what a repo needs from its executor; satisfied by both
// *sqlx.DB and *sqlx.Tx, so services can hand a transaction down.
type queryExecer interface {
	core.DBExecutor
	sqlx.QueryerContext
}

func getExec(db *sqlx.DB, svcExec []core.DBExecutor) queryExecer {
	if len(svcExec) > 0 {
		if e, ok := svcExec[0].(queryExecer); ok {
			return e
		}
	}
	return db
}

func orderBy(ordering []core.DBOrdering) string {
	if len(ordering) == 0 {
		return ""
	}
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		orderList = append(orderList, ord.String())
	}
	return " ORDER BY " + strings.Join(orderList, ", ")
}
