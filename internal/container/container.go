package container

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/oksasatya/go-travel-booking/config"
	"github.com/oksasatya/go-travel-booking/internal/application"
	"github.com/oksasatya/go-travel-booking/internal/domain/repository"
	"github.com/oksasatya/go-travel-booking/internal/infrastructure/mongodb"
	pginfra "github.com/oksasatya/go-travel-booking/internal/infrastructure/postgres"
	"github.com/oksasatya/go-travel-booking/pkg/helpers"
	"github.com/oksasatya/go-travel-booking/pkg/mailer"
	"github.com/oksasatya/go-travel-booking/pkg/mailer/templates"
)

// Container holds the components constructed at startup. It is built once in
// main and handed to the router; nothing in it is a package-level singleton.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger

	PGPool *pgxpool.Pool
	Mongo  *mongo.Client
	Users  repository.UserRepository

	Redis     *redis.Client
	GCS       *storage.Client
	ES        *elasticsearch.Client
	RabbitPub *helpers.RabbitPublisher

	JWT     *helpers.JWTManager
	Mail    application.MailSender
	Account *application.Service

	closers []func()
}

// Build connects every backend selected by cfg and wires the account service.
// Optional backends (GCS, Elasticsearch) are skipped when not configured.
func Build(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}
	if err := c.buildStore(ctx); err != nil {
		c.Close()
		return nil, err
	}

	c.Redis = helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	c.onClose(func() { _ = c.Redis.Close() })

	if cfg.GCSBucket != "" {
		gcs, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
		c.GCS = gcs
		c.onClose(func() { _ = gcs.Close() })
	}

	es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init elasticsearch client: %w", err)
	}
	c.ES = es

	if err := c.buildMail(); err != nil {
		c.Close()
		return nil, err
	}

	c.JWT = helpers.NewJWTManager(cfg.JWTSecret, cfg.Security.SessionTTL)

	svc := application.NewService(c.Users, c.JWT, c.Mail, cfg.Security, logger)
	svc.Branding = templates.Branding{
		AppName:          cfg.AppName,
		CompanyName:      cfg.CompanyName,
		CompanyAddress:   cfg.CompanyAddress,
		LogoURL:          cfg.LogoURL,
		SupportURL:       cfg.SupportURL,
		ResetPasswordURL: cfg.ResetPasswordURL,
	}
	svc.Redis = c.Redis
	svc.GCS = c.GCS
	svc.GCSBucket = cfg.GCSBucket
	svc.ES = c.ES
	svc.ESUsersIndex = cfg.ESUsersIndex
	c.Account = svc

	return c, nil
}

func (c *Container) buildStore(ctx context.Context) error {
	cfg := c.Config
	switch cfg.StoreDriver {
	case "postgres", "":
		pool, err := pginfra.NewPool(ctx, pginfra.PoolConfigFrom(cfg))
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		c.PGPool = pool
		c.onClose(pool.Close)
		c.Users = pginfra.NewUserRepository(pool)
	case "mongo":
		client, err := mongodb.NewClient(ctx, cfg.MongoURI)
		if err != nil {
			return fmt.Errorf("connect mongo: %w", err)
		}
		c.Mongo = client
		c.onClose(func() { _ = client.Disconnect(context.Background()) })
		users := mongodb.NewUserRepository(client.Database(cfg.MongoDatabase))
		if err := users.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure mongo indexes: %w", err)
		}
		c.Users = users
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	return nil
}

func (c *Container) buildMail() error {
	cfg := c.Config
	if !cfg.MailSendEnabled {
		c.Mail = &mailer.LogSender{Logger: c.Logger}
		return nil
	}
	switch cfg.MailTransport {
	case "queue":
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		c.RabbitPub = pub
		c.onClose(pub.Close)
		c.Mail = mailer.NewQueueSender(pub)
	case "mailgun", "":
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
			return fmt.Errorf("mailgun transport selected but not configured")
		}
		c.Mail = mailer.NewMailgun(mailer.MailgunConfig{
			Domain:  cfg.MailgunDomain,
			APIKey:  cfg.MailgunAPIKey,
			Sender:  cfg.MailgunSender,
			APIBase: cfg.MailgunAPIBase,
		})
	case "log":
		c.Mail = &mailer.LogSender{Logger: c.Logger}
	default:
		return fmt.Errorf("unknown MAIL_TRANSPORT %q", cfg.MailTransport)
	}
	return nil
}

func (c *Container) onClose(fn func()) { c.closers = append(c.closers, fn) }

// Close releases backends in reverse order of construction.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
