package echoapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/assignment"
	"github.com/trezcool/alama/core/audit"
	"github.com/trezcool/alama/core/class"
	"github.com/trezcool/alama/core/gradeimport"
	"github.com/trezcool/alama/core/progress"
	"github.com/trezcool/alama/core/user"
)

type (
	gradeImportDeps struct {
		classSvc      *class.Service
		assignmentSvc *assignment.Service
		progressSvc   *progress.Service
		userSvc       user.Service
		auditSvc      *audit.Service
	}

	gradeImportApi struct {
		deps gradeImportDeps
	}

	// GradeImportPreviewRequest carries the raw CSV export pasted or
	// uploaded by the instructor. Threshold overrides the configured
	// confidence cutoff for this run only.
	GradeImportPreviewRequest struct {
		Sheet     string `json:"sheet" validate:"required"`
		Threshold int    `json:"threshold" validate:"omitempty,min=1,max=100"`
	}

	// GradeImportPreviewResponse adds the column mappings to the preview so
	// the client can surface non-confident matches for confirmation.
	GradeImportPreviewResponse struct {
		Mappings []gradeimport.ColumnMapping `json:"mappings"`
		gradeimport.Preview
	}

	GradeImportCommitRequest struct {
		Changes []gradeimport.GradeChange `json:"changes" validate:"required,min=1,dive"`
	}
)

func registerGradeImportAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps gradeImportDeps) {
	api := gradeImportApi{deps: deps}

	gg := g.Group("/classes/:id/grade-import", jwt, loadClassMiddleware(deps.classSvc), classOwnerMiddleware())
	gg.POST("/preview", api.preview)
	gg.POST("/commit", api.commit)
}

func (api *gradeImportApi) preview(ctx echo.Context) error {
	cls, err := getContextClass(ctx)
	if err != nil {
		return err
	}

	var data GradeImportPreviewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeImportPreviewRequest")
	}
	if err := core.Validate.Struct(&data); err != nil {
		return err
	}

	sheet, err := gradeimport.ParseSheet(data.Sheet)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "sheet", Error: err.Error()})
	}
	classification := gradeimport.Classify(sheet.Header, gradeimport.DefaultClassifierConfig())

	reqCtx := ctx.Request().Context()
	targets, err := api.assignmentTargets(reqCtx, cls.ID)
	if err != nil {
		return err
	}
	threshold := core.Conf.GradeImport.MatchThreshold
	if data.Threshold > 0 {
		threshold = data.Threshold
	}
	mappings := gradeimport.MatchColumns(classification.Candidates, targets, threshold)

	roster, err := api.roster(reqCtx, cls.ID)
	if err != nil {
		return err
	}
	stored, err := api.storedGrades(reqCtx, cls.ID)
	if err != nil {
		return err
	}

	preview := gradeimport.BuildPreview(sheet, classification, mappings, roster, stored)
	return ctx.JSON(http.StatusOK, GradeImportPreviewResponse{Mappings: mappings, Preview: preview})
}

func (api *gradeImportApi) commit(ctx echo.Context) error {
	cls, err := getContextClass(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data GradeImportCommitRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeImportCommitRequest")
	}
	if err := core.Validate.Struct(&data); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	writer := &gradeImportWriter{
		deps:    api.deps,
		classID: cls.ID,
		actorID: claims.Subject,
	}
	res := gradeimport.Commit(reqCtx, data.Changes, writer)

	api.deps.auditSvc.Log(reqCtx, claims.Subject, audit.ActionGradeImport, "class", cls.ID,
		fmt.Sprintf("imported %d grades for %d students", res.ProcessedGrades, res.ProcessedStudents))

	return ctx.JSON(http.StatusOK, res)
}

// assignmentTargets returns the class's assignments in creation order; the
// matcher's tie-breaking depends on that order.
func (api *gradeImportApi) assignmentTargets(ctx context.Context, classID string) ([]gradeimport.Target, error) {
	asgs, err := api.deps.assignmentSvc.QueryByClass(ctx, classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	targets := make([]gradeimport.Target, 0, len(asgs))
	for _, asg := range asgs {
		targets = append(targets, gradeimport.Target{ID: asg.ID, Name: asg.Name})
	}
	return targets, nil
}

// roster resolves the class's enrollments into matchable students.
func (api *gradeImportApi) roster(ctx context.Context, classID string) ([]gradeimport.Student, error) {
	enrs, err := api.deps.classSvc.Enrollments(ctx, classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	roster := make([]gradeimport.Student, 0, len(enrs))
	for _, enr := range enrs {
		usr, err := api.deps.userSvc.GetByID(ctx, enr.StudentID)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				continue // orphaned enrollment; nothing to match against
			}
			return nil, errors.Wrap(err, "finding enrolled student")
		}
		roster = append(roster, gradeimport.Student{
			ID:      usr.ID,
			Name:    usr.Name,
			LoginID: usr.Username,
			SISID:   usr.SISID,
		})
	}
	return roster, nil
}

func (api *gradeImportApi) storedGrades(ctx context.Context, classID string) (map[gradeimport.Cell]string, error) {
	recs, err := api.deps.progressSvc.QueryByClass(ctx, classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying progress records")
	}
	stored := make(map[gradeimport.Cell]string, len(recs))
	for _, rec := range recs {
		stored[gradeimport.Cell{StudentID: rec.StudentID, AssignmentID: rec.AssignmentID}] = rec.Value
	}
	return stored, nil
}

// gradeImportWriter persists approved changes through the progress service
// so WebSocket subscribers see imported grades as they land.
type gradeImportWriter struct {
	deps    gradeImportDeps
	classID string
	actorID string
}

var _ gradeimport.Writer = (*gradeImportWriter)(nil)

func (w *gradeImportWriter) Apply(ctx context.Context, chg gradeimport.GradeChange) error {
	// the change must target one of this class's assignments
	asg, err := w.deps.assignmentSvc.GetByID(ctx, chg.AssignmentID)
	if err != nil {
		return errors.Wrap(err, "finding assignment by ID")
	}
	if asg.ClassID != w.classID {
		return errors.New("assignment does not belong to this class")
	}

	_, err = w.deps.progressSvc.Set(ctx, progress.SetRecord{
		ClassID:      w.classID,
		StudentID:    chg.StudentID,
		AssignmentID: chg.AssignmentID,
		Value:        chg.NewValue,
	}, w.actorID)
	return err
}
