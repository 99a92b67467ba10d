package application

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-travel-booking/config"
	"github.com/oksasatya/go-travel-booking/pkg/mailer/templates"
)

const strongPassword = "Abc123!@"

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type signerMock struct {
	GenerateFunc func(userID, username, fullname, sessionID string) (string, time.Time, error)
}

func (m *signerMock) GenerateAccessToken(userID, username, fullname, sessionID string) (string, time.Time, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(userID, username, fullname, sessionID)
	}
	return "token-" + userID, time.Time{}, nil
}

type sentMail struct {
	To, Subject, Text, HTML string
}

type mailMock struct {
	SendFunc func(ctx context.Context, to, subject, text, html string) error
	Sent     []sentMail
}

func (m *mailMock) Send(ctx context.Context, to, subject, text, html string) error {
	m.Sent = append(m.Sent, sentMail{To: to, Subject: subject, Text: text, HTML: html})
	if m.SendFunc != nil {
		return m.SendFunc(ctx, to, subject, text, html)
	}
	return nil
}

type fixture struct {
	svc   *Service
	store *memStore
	clock *clock
	mail  *mailMock
	mr    *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	sec := config.DefaultSecurity()
	sec.BcryptCost = 4

	f := &fixture{
		store: newMemStore(),
		clock: &clock{t: epoch},
		mail:  &mailMock{},
		mr:    mr,
	}
	f.svc = NewService(f.store, &signerMock{}, f.mail, sec, nil)
	f.svc.Now = f.clock.Now
	f.svc.Rand = bytes.NewReader(bytes.Repeat([]byte{0xab}, 1024))
	f.svc.Redis = rdb
	f.svc.Branding = templates.Branding{AppName: "Travel", CompanyName: "Travel", ResetPasswordURL: "https://travel.test/reset"}
	return f
}

func (f *fixture) register(t *testing.T, username, email string) *Profile {
	t.Helper()
	p, err := f.svc.Register(context.Background(), RegisterInput{
		Username: username,
		Password: strongPassword,
		Fullname: "Alice A",
		Email:    email,
	})
	require.NoError(t, err)
	return p
}
