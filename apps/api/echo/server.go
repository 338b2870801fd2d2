package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/assignment"
	"github.com/trezcool/alama/core/attendance"
	"github.com/trezcool/alama/core/audit"
	"github.com/trezcool/alama/core/class"
	"github.com/trezcool/alama/core/contract"
	"github.com/trezcool/alama/core/progress"
	"github.com/trezcool/alama/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Logger        core.Logger
		UserSvc       user.Service
		ClassSvc      *class.Service
		ContractSvc   *contract.Service
		AssignmentSvc *assignment.Service
		ProgressSvc   *progress.Service
		AttendanceSvc *attendance.Service
		AuditSvc      *audit.Service
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
		Shutdown() <-chan struct{} // closed when a fatal error asks for a graceful stop
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		shutdown chan struct{}
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		shutdown: make(chan struct{}),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.signalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.opts.UserSvc)
	registerClassAPI(v1, jwt, s.opts.ClassSvc, s.opts.ContractSvc, s.opts.UserSvc, s.opts.AuditSvc)
	registerAssignmentAPI(v1, jwt, s.opts.AssignmentSvc, s.opts.ClassSvc, s.opts.AuditSvc)
	registerProgressAPI(v1, jwt, s.opts.ProgressSvc, s.opts.ClassSvc)
	registerAttendanceAPI(v1, jwt, s.opts.AttendanceSvc, s.opts.ClassSvc, s.opts.AuditSvc)
	registerAuditAPI(v1, jwt, s.opts.AuditSvc)
	registerGradeImportAPI(v1, jwt, gradeImportDeps{
		classSvc:      s.opts.ClassSvc,
		assignmentSvc: s.opts.AssignmentSvc,
		progressSvc:   s.opts.ProgressSvc,
		userSvc:       s.opts.UserSvc,
		auditSvc:      s.opts.AuditSvc,
	})
}

func (s *server) signalShutdown() {
	select {
	case <-s.shutdown:
	default:
		close(s.shutdown)
	}
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Shutdown() <-chan struct{} {
	return s.shutdown
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Alama API!")
}
