package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/assignment"
	"github.com/trezcool/alama/core/audit"
	"github.com/trezcool/alama/core/class"
)

type assignmentApi struct {
	svc      *assignment.Service
	auditSvc *audit.Service
}

func registerAssignmentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *assignment.Service,
	classSvc *class.Service,
	auditSvc *audit.Service,
) {
	api := assignmentApi{svc: svc, auditSvc: auditSvc}

	ag := g.Group("/classes/:id/assignments", jwt, loadClassMiddleware(classSvc))
	ag.GET("", api.query)
	ag.POST("", api.create, classOwnerMiddleware())
	ag.GET("/:assignmentID", api.retrieve)
	ag.PUT("/:assignmentID", api.update, classOwnerMiddleware())
	ag.DELETE("/:assignmentID", api.destroy, classOwnerMiddleware())
}

func (api *assignmentApi) getObject(ctx echo.Context) (assignment.Assignment, error) {
	cls, err := getContextClass(ctx)
	if err != nil {
		return assignment.Assignment{}, err
	}
	asg, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("assignmentID"))
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return assignment.Assignment{}, errHttpNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "finding assignment by ID")
	}
	if asg.ClassID != cls.ID {
		return assignment.Assignment{}, errHttpNotFound
	}
	return asg, nil
}

func (api *assignmentApi) query(ctx echo.Context) error {
	cls, err := getContextClass(ctx)
	if err != nil {
		return err
	}
	asgs, err := api.svc.QueryByClass(ctx.Request().Context(), cls.ID)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if asgs == nil {
		asgs = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, asgs)
}

func (api *assignmentApi) create(ctx echo.Context) error {
	cls, err := getContextClass(ctx)
	if err != nil {
		return err
	}

	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(core.Validate); err != nil {
		return err
	}

	asg, err := api.svc.Create(ctx.Request().Context(), cls.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	claims, _ := getContextClaims(ctx)
	api.auditSvc.Log(ctx.Request().Context(), claims.Subject, audit.ActionCreate, "assignment", asg.ID, asg.Name)

	return ctx.JSON(http.StatusCreated, asg)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	asg, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	asg, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	var data assignment.UpdateAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	if err := data.Validate(asg, core.Validate); err != nil {
		return err
	}

	asg, err = api.svc.Update(ctx.Request().Context(), asg.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	claims, _ := getContextClaims(ctx)
	api.auditSvc.Log(ctx.Request().Context(), claims.Subject, audit.ActionUpdate, "assignment", asg.ID, asg.Name)

	return ctx.JSON(http.StatusOK, asg)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	asg, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), asg.ID); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	claims, _ := getContextClaims(ctx)
	api.auditSvc.Log(ctx.Request().Context(), claims.Subject, audit.ActionDelete, "assignment", asg.ID, asg.Name)

	return ctx.NoContent(http.StatusNoContent)
}
