package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/audit"
	"github.com/trezcool/alama/core/class"
	"github.com/trezcool/alama/core/contract"
	"github.com/trezcool/alama/core/user"
)

var errClsNotFoundInCtx = errors.New("class object not found in echo.Context")

type classApi struct {
	svc         *class.Service
	contractSvc *contract.Service
	userSvc     user.Service
	auditSvc    *audit.Service
}

func registerClassAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *class.Service,
	contractSvc *contract.Service,
	userSvc user.Service,
	auditSvc *audit.Service,
) {
	api := classApi{svc: svc, contractSvc: contractSvc, userSvc: userSvc, auditSvc: auditSvc}

	cg := g.Group("/classes", jwt)
	cg.POST("", api.create, instructorMiddleware())
	cg.GET("", api.query)

	dg := cg.Group("/:id", loadClassMiddleware(svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, classOwnerMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())

	dg.GET("/enrollments", api.queryEnrollments)
	dg.POST("/enrollments", api.enroll, classOwnerMiddleware())
	dg.DELETE("/enrollments/:enrollmentID", api.unenroll, classOwnerMiddleware())
	dg.PUT("/enrollments/:enrollmentID/contract", api.selectContract)

	dg.GET("/contracts", api.queryContracts)
	dg.POST("/contracts", api.createContract, classOwnerMiddleware())
	dg.PUT("/contracts/:contractID", api.updateContract, classOwnerMiddleware())
	dg.DELETE("/contracts/:contractID", api.destroyContract, classOwnerMiddleware())
}

// loadClassMiddleware resolves :id and stores the class in the context.
func loadClassMiddleware(svc *class.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			cls, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == class.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding class by ID")
			}
			ctx.Set("class", cls)
			return next(ctx)
		}
	}
}

// classOwnerMiddleware admits admins and the instructor teaching the class.
// Must run after loadClassMiddleware.
func classOwnerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			cls, ok := ctx.Get("class").(class.Class)
			if !ok {
				return errors.Wrap(errClsNotFoundInCtx, "retrieving class from context")
			}
			if claims.IsAdmin || (claims.IsInstructor && cls.InstructorID == claims.Subject) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func getContextClass(ctx echo.Context) (class.Class, error) {
	if cls, ok := ctx.Get("class").(class.Class); ok {
		return cls, nil
	}
	return class.Class{}, errors.Wrap(errClsNotFoundInCtx, "retrieving class from context")
}

// Handlers

func (api *classApi) create(ctx echo.Context) error {
	var data class.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// instructors can only create their own classes
	if !claims.IsAdmin {
		data.InstructorID = claims.Subject
	}
	if err := data.Validate(core.Validate); err != nil {
		return err
	}

	cls, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	api.auditSvc.Log(ctx.Request().Context(), claims.Subject, audit.ActionCreate, "class", cls.ID, cls.Name)

	return ctx.JSON(http.StatusCreated, cls)
}

func (api *classApi) query(ctx echo.Context) error {
	filter := new(class.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []class.Class{})
	}
	filter.Clean()

	// students only see classes they are enrolled in
	if claims, err := getContextClaims(ctx); err == nil && !claims.IsAdmin && !claims.IsInstructor {
		filter.StudentID = claims.Subject
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	classes, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []class.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *classApi) retrieve(ctx echo.Context) error {
	cls, err := getContextClass(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) update(ctx echo.Context) error {
	cls, err := getContextClass(ctx)
	if err != nil {
		return err
	}

	var data class.UpdateClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}
	if err := data.Validate(cls, core.Validate); err != nil {
		return err
	}

	claims, _ := getContextClaims(ctx)
	// only admins may reassign a class to another instructor
	if !claims.IsAdmin && data.InstructorID != cls.InstructorID {
		return errHttpForbidden
	}

	cls, err = api.svc.Update(ctx.Request().Context(), cls.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	api.auditSvc.Log(ctx.Request().Context(), claims.Subject, audit.ActionUpdate, "class", cls.ID, cls.Name)

	return ctx.JSON(http.StatusOK, cls)
}

func (api *classApi) destroy(ctx echo.Context) error {
	cls, err := getContextClass(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), cls.ID); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	claims, _ := getContextClaims(ctx)
	api.auditSvc.Log(ctx.Request().Context(), claims.Subject, audit.ActionDelete, "class", cls.ID, cls.Name)

	return ctx.NoContent(http.StatusNoContent)
}

// Enrollments

func (api *classApi) queryEnrollments(ctx echo.Context) error {
	cls, err := getContextClass(ctx)
	if err != nil {
		return err
	}
	enrs, err := api.svc.Enrollments(ctx.Request().Context(), cls.ID)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrs == nil {
		enrs = []class.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

func (api *classApi) enroll(ctx echo.Context) error {
	cls, err := getContextClass(ctx)
	if err != nil {
		return err
	}

	var data class.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	if err := data.Validate(core.Validate); err != nil {
		return err
	}

	// the enrollee must exist and be a student
	usr, err := api.userSvc.GetByID(ctx.Request().Context(), data.StudentID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "student not found"})
		}
		return errors.Wrap(err, "finding student by ID")
	}
	if !usr.IsStudent() {
		return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "user is not a student"})
	}

	enr, err := api.svc.Enroll(ctx.Request().Context(), cls.ID, data)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	claims, _ := getContextClaims(ctx)
	api.auditSvc.Log(ctx.Request().Context(), claims.Subject, audit.ActionCreate, "enrollment", enr.ID, usr.Username)

	return ctx.JSON(http.StatusCreated, enr)
}

func (api *classApi) unenroll(ctx echo.Context) error {
	enr, err := api.svc.GetEnrollment(ctx.Request().Context(), ctx.Param("enrollmentID"))
	if err != nil {
		if errors.Cause(err) == class.ErrEnrollmentNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding enrollment by ID")
	}
	if err := api.svc.Unenroll(ctx.Request().Context(), enr.ID); err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	claims, _ := getContextClaims(ctx)
	api.auditSvc.Log(ctx.Request().Context(), claims.Subject, audit.ActionDelete, "enrollment", enr.ID, "")

	return ctx.NoContent(http.StatusNoContent)
}

// selectContract lets a student commit to a grade contract for their own
// enrollment; instructors and admins can set anyone's.
func (api *classApi) selectContract(ctx echo.Context) error {
	cls, err := getContextClass(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	enr, err := api.svc.GetEnrollment(ctx.Request().Context(), ctx.Param("enrollmentID"))
	if err != nil {
		if errors.Cause(err) == class.ErrEnrollmentNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding enrollment by ID")
	}
	if !claims.IsAdmin && !(claims.IsInstructor && cls.InstructorID == claims.Subject) && enr.StudentID != claims.Subject {
		return errHttpForbidden
	}

	var data SelectContractRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SelectContractRequest")
	}
	if err := core.Validate.Struct(&data); err != nil {
		return err
	}

	// the contract must belong to this class
	ct, err := api.contractSvc.GetByID(ctx.Request().Context(), data.ContractID)
	if err != nil || ct.ClassID != cls.ID {
		return core.NewValidationError(nil, core.FieldError{Field: "contract_id", Error: "contract not found in this class"})
	}

	enr, err = api.svc.SelectContract(ctx.Request().Context(), enr.ID, ct.ID)
	if err != nil {
		return errors.Wrap(err, "selecting contract")
	}
	api.auditSvc.Log(ctx.Request().Context(), claims.Subject, audit.ActionUpdate, "enrollment", enr.ID, "contract "+ct.Grade)

	return ctx.JSON(http.StatusOK, enr)
}

// Contracts

func (api *classApi) queryContracts(ctx echo.Context) error {
	cls, err := getContextClass(ctx)
	if err != nil {
		return err
	}
	contracts, err := api.contractSvc.QueryByClass(ctx.Request().Context(), cls.ID)
	if err != nil {
		return errors.Wrap(err, "querying contracts")
	}
	if contracts == nil {
		contracts = []contract.Contract{}
	}
	return ctx.JSON(http.StatusOK, contracts)
}

func (api *classApi) createContract(ctx echo.Context) error {
	cls, err := getContextClass(ctx)
	if err != nil {
		return err
	}

	var data contract.NewContract
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewContract")
	}
	if err := data.Validate(core.Validate); err != nil {
		return err
	}

	ct, err := api.contractSvc.Create(ctx.Request().Context(), cls.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating contract")
	}
	claims, _ := getContextClaims(ctx)
	api.auditSvc.Log(ctx.Request().Context(), claims.Subject, audit.ActionCreate, "contract", ct.ID, ct.Grade)

	return ctx.JSON(http.StatusCreated, ct)
}

func (api *classApi) updateContract(ctx echo.Context) error {
	cls, err := getContextClass(ctx)
	if err != nil {
		return err
	}

	ct, err := api.contractSvc.GetByID(ctx.Request().Context(), ctx.Param("contractID"))
	if err != nil || ct.ClassID != cls.ID {
		return errHttpNotFound
	}

	var data contract.UpdateContract
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateContract")
	}
	if err := data.Validate(ct, core.Validate); err != nil {
		return err
	}

	ct, err = api.contractSvc.Update(ctx.Request().Context(), ct.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating contract")
	}
	claims, _ := getContextClaims(ctx)
	api.auditSvc.Log(ctx.Request().Context(), claims.Subject, audit.ActionUpdate, "contract", ct.ID, ct.Grade)

	return ctx.JSON(http.StatusOK, ct)
}

func (api *classApi) destroyContract(ctx echo.Context) error {
	cls, err := getContextClass(ctx)
	if err != nil {
		return err
	}

	ct, err := api.contractSvc.GetByID(ctx.Request().Context(), ctx.Param("contractID"))
	if err != nil || ct.ClassID != cls.ID {
		return errHttpNotFound
	}

	if err := api.contractSvc.Delete(ctx.Request().Context(), ct.ID); err != nil {
		return errors.Wrap(err, "deleting contract")
	}
	claims, _ := getContextClaims(ctx)
	api.auditSvc.Log(ctx.Request().Context(), claims.Subject, audit.ActionDelete, "contract", ct.ID, ct.Grade)

	return ctx.NoContent(http.StatusNoContent)
}

type SelectContractRequest struct {
	ContractID string `json:"contract_id" validate:"required,uuid4"`
}
