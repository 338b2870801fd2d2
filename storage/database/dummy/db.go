// Package dummydb is an in-memory storage backend for tests and local
// development; it implements every core Repository interface.
package dummydb

import (
	"sync"

	"github.com/trezcool/alama/core/assignment"
	"github.com/trezcool/alama/core/attendance"
	"github.com/trezcool/alama/core/audit"
	"github.com/trezcool/alama/core/class"
	"github.com/trezcool/alama/core/contract"
	"github.com/trezcool/alama/core/progress"
	"github.com/trezcool/alama/core/user"
)

type (
	DB struct {
		user       *userTable
		class      *classTable
		contract   *contractTable
		assignment *assignmentTable
		progress   *progressTable
		attendance *attendanceTable
		audit      *auditTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	classTable struct {
		sync.RWMutex
		classes     map[string]*class.Class
		enrollments map[string]*class.Enrollment
	}

	contractTable struct {
		sync.RWMutex
		table map[string]*contract.Contract
	}

	assignmentTable struct {
		sync.RWMutex
		table map[string]*assignment.Assignment
	}

	progressTable struct {
		sync.RWMutex
		table map[string]*progress.Record
	}

	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Record
	}

	auditTable struct {
		sync.RWMutex
		entries []audit.Entry
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		class:      &classTable{classes: make(map[string]*class.Class), enrollments: make(map[string]*class.Enrollment)},
		contract:   &contractTable{table: make(map[string]*contract.Contract)},
		assignment: &assignmentTable{table: make(map[string]*assignment.Assignment)},
		progress:   &progressTable{table: make(map[string]*progress.Record)},
		attendance: &attendanceTable{table: make(map[string]*attendance.Record)},
		audit:      &auditTable{},
	}
	return db, nil
}
