package application

import (
	"context"
	"crypto/rand"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-travel-booking/config"
	repo "github.com/oksasatya/go-travel-booking/internal/domain/repository"
	"github.com/oksasatya/go-travel-booking/pkg/mailer/templates"
)

// TokenSigner issues the signed session token handed out at login.
type TokenSigner interface {
	GenerateAccessToken(userID, username, fullname, sessionID string) (string, time.Time, error)
}

// MailSender delivers one message; html may be empty.
type MailSender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Service is the account security service: credentials, login throttle,
// password expiry and recovery tokens, plus profile maintenance.
// Optional collaborators (Redis, GCS, ES) may be nil.
type Service struct {
	Repo     repo.UserRepository
	Tokens   TokenSigner
	Mail     MailSender
	Security config.Security
	Branding templates.Branding
	Logger   *logrus.Logger

	Redis        *redis.Client
	GCS          *storage.Client
	GCSBucket    string
	ES           *elasticsearch.Client
	ESUsersIndex string

	Now  func() time.Time
	Rand io.Reader
}

func NewService(repo repo.UserRepository, tokens TokenSigner, mail MailSender, sec config.Security, logger *logrus.Logger) *Service {
	return &Service{
		Repo:     repo,
		Tokens:   tokens,
		Mail:     mail,
		Security: sec,
		Logger:   logger,
		Now:      time.Now,
		Rand:     rand.Reader,
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) random() io.Reader {
	if s.Rand != nil {
		return s.Rand
	}
	return rand.Reader
}

var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

func (s *Service) log() *logrus.Entry {
	if s.Logger == nil {
		return logrus.NewEntry(discardLogger)
	}
	return logrus.NewEntry(s.Logger)
}

func nowRFC3339(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
