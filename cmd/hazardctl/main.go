package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &App{
		Out:          os.Stdout,
		In:           os.Stdin,
		Logger:       logger,
		ReadPassword: readTerminalPassword,
	}
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		logger.WithError(err).Error("hazardctl failed")
		stop()
		os.Exit(1)
	}
}
