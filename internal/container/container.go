package container

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/hazard-reporting/config"
	"github.com/oksasatya/hazard-reporting/internal/application"
	repo "github.com/oksasatya/hazard-reporting/internal/domain/repository"
	"github.com/oksasatya/hazard-reporting/internal/infrastructure/notify"
	"github.com/oksasatya/hazard-reporting/internal/infrastructure/otp"
	pginfra "github.com/oksasatya/hazard-reporting/internal/infrastructure/postgres"
	"github.com/oksasatya/hazard-reporting/internal/infrastructure/search"
	"github.com/oksasatya/hazard-reporting/internal/infrastructure/sms"
	"github.com/oksasatya/hazard-reporting/internal/router/modules"
	"github.com/oksasatya/hazard-reporting/pkg/helpers"
)

// Container holds the process-wide collaborators. It is built once in main and passed
// explicitly to the router; nothing reads it through package state.
// GCS, ES and Rabbit are optional and may be nil.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger
	Pool   *pgxpool.Pool
	Redis  *redis.Client
	GCS    *storage.Client
	ES     *elasticsearch.Client
	Rabbit *helpers.RabbitPublisher
	JWT    *helpers.JWTManager

	Users   repo.UserRepository
	Reports repo.ReportRepository
	SMS     *sms.Client
	OTP     application.OTPProvider

	Gate          *application.Gate
	AuthService   *application.AuthService
	ReportService *application.ReportService
	Cookies       *helpers.SessionCookie

	closers []func()
}

// Open connects to Postgres (required, migrated on open) and Redis, then to each
// optional backend that is configured. An optional backend that fails is logged and
// left nil so the API still serves reports without it.
func Open(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
		JWT:    helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.AccessTTL, cfg.AppName),
	}

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLife,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	c.Pool = pool
	c.closers = append(c.closers, pool.Close)

	if err := pginfra.Migrate(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		c.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	rdb, err := helpers.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.WithError(err).Warn("redis unreachable; rate limits fail open and local OTP will fail until it recovers")
	}
	c.Redis = rdb
	c.closers = append(c.closers, func() { _ = rdb.Close() })

	c.openOptional(ctx)
	return c.Build(), nil
}

func (c *Container) openOptional(ctx context.Context) {
	cfg, logger := c.Config, c.Logger

	if cfg.GCSBucket != "" {
		gcs, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			logger.WithError(err).Warn("gcs disabled; image uploads unavailable")
		} else {
			c.GCS = gcs
			c.closers = append(c.closers, func() { _ = gcs.Close() })
		}
	}

	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := search.NewClient(search.ClientOptions{Addresses: addrs, Username: cfg.ElasticsearchUser, Password: cfg.ElasticsearchPass})
		if err != nil {
			logger.WithError(err).Warn("elasticsearch disabled")
		} else if err := search.NewReportIndex(es, cfg.ESReportsIndex).EnsureIndex(ctx); err != nil {
			logger.WithError(err).Warn("elasticsearch index not ready; search disabled")
		} else {
			c.ES = es
		}
	}

	if cfg.RabbitMQURL != "" {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQReportsQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq disabled; new report notifications will not be sent")
		} else {
			c.Rabbit = pub
			c.closers = append(c.closers, pub.Close)
		}
	}
}

// Build wires repositories and services from the infrastructure clients already set.
func (c *Container) Build() *Container {
	cfg := c.Config
	c.Users = pginfra.NewUserRepository(c.Pool)
	c.Reports = pginfra.NewReportRepository(c.Pool)
	c.SMS = sms.NewClient(cfg.SMSAPIURL, cfg.SMSAPIKey, cfg.SMSSender, cfg.SMSDryRun, c.Logger)

	switch cfg.OTPProvider {
	case "twilio":
		c.OTP = otp.NewTwilioVerify(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioVerifyServiceSID)
	default:
		c.OTP = otp.NewRedisProvider(c.Redis, c.SMS, cfg.OTPTTL, cfg.OTPMaxAttempts, cfg.AppName, c.Logger)
	}
	c.Logger.WithField("otp_provider", cfg.OTPProvider).Info("otp provider selected")

	var notifier application.Notifier
	if c.Rabbit != nil {
		notifier = notify.NewQueueNotifier(c.Rabbit)
	}
	var index application.Indexer
	if c.ES != nil {
		index = search.NewReportIndex(c.ES, cfg.ESReportsIndex)
	}
	var images application.ImageStore
	if c.GCS != nil && cfg.GCSBucket != "" {
		images = &helpers.GCSBucket{Client: c.GCS, Bucket: cfg.GCSBucket}
	}

	c.Gate = application.NewGate(c.JWT, c.Users, c.Logger)
	c.AuthService = application.NewAuthService(c.Users, c.OTP, c.JWT, c.Logger)
	c.ReportService = application.NewReportService(c.Reports, notifier, index, images, c.Logger)
	c.Cookies = helpers.NewSessionCookie(cfg.CookieDomain, cfg.CookieSecure)
	return c
}

// Checks returns the readiness probes served by /healthz.
func (c *Container) Checks() map[string]modules.Probe {
	probes := map[string]modules.Probe{}
	if c.Pool != nil {
		probes["postgres"] = c.Pool.Ping
	}
	if c.Redis != nil {
		probes["redis"] = func(ctx context.Context) error { return c.Redis.Ping(ctx).Err() }
	}
	return probes
}

// Close releases clients in reverse order of opening.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
