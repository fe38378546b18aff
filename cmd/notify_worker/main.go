package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/oksasatya/hazard-reporting/config"
	"github.com/oksasatya/hazard-reporting/internal/infrastructure/notify"
	"github.com/oksasatya/hazard-reporting/internal/infrastructure/sms"
	"github.com/oksasatya/hazard-reporting/pkg/helpers"
	"github.com/oksasatya/hazard-reporting/pkg/mailer"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-notify-worker", cfg.Env, cfg.LogLevel)

	if cfg.RabbitMQURL == "" || cfg.RabbitMQReportsQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}

	d := &notify.Dispatcher{
		AppName:      cfg.AppName,
		DashboardURL: cfg.AdminDashboardURL,
		Emails:       cfg.AlertEmails(),
		Phones:       cfg.AlertPhones(),
		SMS:          sms.NewClient(cfg.SMSAPIURL, cfg.SMSAPIKey, cfg.SMSSender, cfg.SMSDryRun, logger),
		Logger:       logger,
	}
	switch {
	case !cfg.MailSendEnabled:
		logger.Info("MAIL_SEND_ENABLED=false; admin alert emails disabled")
	case cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "":
		logger.Warn("Mailgun not configured; admin alert emails disabled")
	default:
		d.Mail = mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	}

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQReportsQueue, 16)
	if err != nil {
		logger.WithError(err).Fatal("rabbitmq unavailable")
	}
	defer consumer.Close()

	deliveries, err := consumer.Deliveries(cfg.AppName + "-notify-worker")
	if err != nil {
		logger.WithError(err).Fatal("consume")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithField("queue", cfg.RabbitMQReportsQueue).Info("notify worker listening")
	w := &notify.Worker{Handler: d, Logger: logger}
	w.Run(ctx, deliveries)
	logger.Info("notify worker stopped")
}
