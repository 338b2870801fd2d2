package echoapi

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/class"
	"github.com/trezcool/alama/core/progress"
)

var progressUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // auth happens via JWT before upgrade
}

type progressApi struct {
	svc *progress.Service
}

func registerProgressAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *progress.Service,
	classSvc *class.Service,
) {
	api := progressApi{svc: svc}

	pg := g.Group("/classes/:id/progress", jwt, loadClassMiddleware(classSvc))
	pg.GET("", api.query)
	pg.PUT("", api.set, classOwnerMiddleware())
	pg.GET("/ws", api.watch)
}

// query returns the class's progress records; students only get their own.
func (api *progressApi) query(ctx echo.Context) error {
	cls, err := getContextClass(ctx)
	if err != nil {
		return err
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var recs []progress.Record
	if claims.IsAdmin || (claims.IsInstructor && cls.InstructorID == claims.Subject) {
		recs, err = api.svc.QueryByClass(ctx.Request().Context(), cls.ID)
	} else {
		recs, err = api.svc.QueryByStudent(ctx.Request().Context(), cls.ID, claims.Subject)
	}
	if err != nil {
		return errors.Wrap(err, "querying progress records")
	}
	if recs == nil {
		recs = []progress.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *progressApi) set(ctx echo.Context) error {
	cls, err := getContextClass(ctx)
	if err != nil {
		return err
	}

	var data progress.SetRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetRecord")
	}
	data.ClassID = cls.ID
	if err := data.Validate(core.Validate); err != nil {
		return err
	}

	claims, _ := getContextClaims(ctx)
	rec, err := api.svc.Set(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "setting progress record")
	}
	return ctx.JSON(http.StatusOK, rec)
}

// watch streams progress events for the class over a WebSocket.
// The connection is read only to detect the client going away.
func (api *progressApi) watch(ctx echo.Context) error {
	cls, err := getContextClass(ctx)
	if err != nil {
		return err
	}

	conn, err := progressUpgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return errors.Wrap(err, "upgrading to WebSocket")
	}
	defer conn.Close()

	events := api.svc.Broker().Subscribe(cls.ID)
	defer api.svc.Broker().Unsubscribe(cls.ID, events)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			if err := conn.WriteJSON(evt); err != nil {
				return nil
			}
		case <-done:
			return nil
		case <-ctx.Request().Context().Done():
			return nil
		}
	}
}
