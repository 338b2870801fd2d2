package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/attendance"
	"github.com/trezcool/alama/core/audit"
	"github.com/trezcool/alama/core/class"
)

type attendanceApi struct {
	svc      *attendance.Service
	auditSvc *audit.Service
}

func registerAttendanceAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *attendance.Service,
	classSvc *class.Service,
	auditSvc *audit.Service,
) {
	api := attendanceApi{svc: svc, auditSvc: auditSvc}

	ag := g.Group("/classes/:id/attendance", jwt, loadClassMiddleware(classSvc))
	ag.GET("", api.query)
	ag.POST("", api.record, classOwnerMiddleware())
	ag.DELETE("/:recordID", api.destroy, classOwnerMiddleware())
	ag.GET("/summary", api.summary)
}

// query returns the class's attendance records; students only get their own.
func (api *attendanceApi) query(ctx echo.Context) error {
	cls, err := getContextClass(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	recs, err := api.svc.QueryByClass(ctx.Request().Context(), cls.ID)
	if err != nil {
		return errors.Wrap(err, "querying attendance records")
	}
	if !claims.IsAdmin && !(claims.IsInstructor && cls.InstructorID == claims.Subject) {
		own := make([]attendance.Record, 0, len(recs))
		for _, rec := range recs {
			if rec.StudentID == claims.Subject {
				own = append(own, rec)
			}
		}
		recs = own
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) record(ctx echo.Context) error {
	cls, err := getContextClass(ctx)
	if err != nil {
		return err
	}

	var data attendance.NewRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecord")
	}
	if err := data.Validate(core.Validate); err != nil {
		return err
	}

	rec, err := api.svc.Record(ctx.Request().Context(), cls.ID, data)
	if err != nil {
		return errors.Wrap(err, "recording attendance")
	}
	claims, _ := getContextClaims(ctx)
	api.auditSvc.Log(ctx.Request().Context(), claims.Subject, audit.ActionCreate, "attendance_record", rec.ID, rec.Status)

	return ctx.JSON(http.StatusCreated, rec)
}

func (api *attendanceApi) destroy(ctx echo.Context) error {
	id := ctx.Param("recordID")
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		if errors.Cause(err) == attendance.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting attendance record")
	}
	claims, _ := getContextClaims(ctx)
	api.auditSvc.Log(ctx.Request().Context(), claims.Subject, audit.ActionDelete, "attendance_record", id, "")

	return ctx.NoContent(http.StatusNoContent)
}

// summary returns per-student attendance counts and mean engagement;
// students only get their own row.
func (api *attendanceApi) summary(ctx echo.Context) error {
	cls, err := getContextClass(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sums, err := api.svc.Summarize(ctx.Request().Context(), cls.ID)
	if err != nil {
		return errors.Wrap(err, "summarizing attendance")
	}
	if !claims.IsAdmin && !(claims.IsInstructor && cls.InstructorID == claims.Subject) {
		own := make([]attendance.Summary, 0, 1)
		for _, sum := range sums {
			if sum.StudentID == claims.Subject {
				own = append(own, sum)
			}
		}
		sums = own
	}
	if sums == nil {
		sums = []attendance.Summary{}
	}
	return ctx.JSON(http.StatusOK, sums)
}
