package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-travel-booking/config"
	"github.com/oksasatya/go-travel-booking/internal/application"
	"github.com/oksasatya/go-travel-booking/internal/container"
	"github.com/oksasatya/go-travel-booking/pkg/helpers"
)

// seed registers a demo account through the account service so the stored
// record carries a real hash, history and timestamps.
func main() {
	_ = godotenv.Load()

	username := flag.String("username", "demoUser", "username")
	email := flag.String("email", "demo@travel.local", "email")
	fullname := flag.String("fullname", "Demo User", "full name")
	password := flag.String("password", "Demo123!@", "password (must satisfy the password policy)")
	flag.Parse()

	cfg := config.Load()
	cfg.MailSendEnabled = false
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)

	c, err := container.Build(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer c.Close()

	p, err := c.Account.Register(context.Background(), application.RegisterInput{
		Username: *username,
		Password: *password,
		Fullname: *fullname,
		Email:    *email,
	})
	switch {
	case errors.Is(err, application.ErrDuplicateUsername), errors.Is(err, application.ErrDuplicateEmail):
		logger.WithField("username", *username).Info("demo user already exists")
		return
	case err != nil:
		log.Fatalf("failed to seed user: %v", err)
	}
	helpers.LogInfo(logger, "seeded demo user", logrus.Fields{"id": p.ID, "username": p.Username, "email": p.Email})
}
