package user

import (
	"context"
	"time"

	"github.com/trezcool/alama/core"
)

// MakeToken exposes password-reset token generation to tests in other packages.
func MakeToken(usr User) string {
	return makeToken(usr)
}

// MakeTokenAt generates a token as if it were issued at t; lets tests build
// expired tokens without mocking the clock.
func MakeTokenAt(usr User, t time.Time) string {
	return makeTokenWithTimestamp(usr, numDaysSince2001(t))
}

type serviceMock struct {
	service
}

// NewServiceMock returns a Service whose password-reset mail is sent
// synchronously so tests can assert on the sent messages.
func NewServiceMock(repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	setTokenConfig(conf)
	return &serviceMock{
		service: service{
			repo:    repo,
			mailSvc: mailSvc,
		},
	}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}
