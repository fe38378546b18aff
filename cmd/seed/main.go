package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/hazard-reporting/config"
	"github.com/oksasatya/hazard-reporting/internal/domain/entity"
	pginfra "github.com/oksasatya/hazard-reporting/internal/infrastructure/postgres"
	"github.com/oksasatya/hazard-reporting/pkg/helpers"
)

type seedUser struct {
	email    string
	password string
	phone    string
	role     entity.Role
}

// Accounts are provisioned here; the API never creates users.
var seedUsers = []seedUser{
	{email: "admin@hazards.local", password: "password123", phone: "+15550000001", role: entity.RoleAdmin},
	{email: "reporter@hazards.local", password: "password123", phone: "+15550000002", role: entity.RoleReporter},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	if err := pginfra.Migrate(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		logger.WithError(err).Fatal("migrate")
	}
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{MaxConns: 2})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()
	users := pginfra.NewUserRepository(pool)

	for _, s := range seedUsers {
		hash, err := helpers.HashPassword(s.password)
		if err != nil {
			logger.WithError(err).Fatal("failed to hash password")
		}
		phone, err := entity.NormalizePhone(s.phone)
		if err != nil {
			logger.WithError(err).WithField("phone", s.phone).Fatal("invalid phone")
		}
		u := &entity.User{Email: s.email, PasswordHash: hash, Phone: phone, Role: s.role}
		if err := users.Create(ctx, u); err != nil {
			logger.WithError(err).WithField("email", s.email).Fatal("failed to seed user")
		}
		logger.WithFields(logrus.Fields{"id": u.ID, "email": u.Email, "phone": u.Phone, "role": u.Role}).Info("seeded user")
	}
}
