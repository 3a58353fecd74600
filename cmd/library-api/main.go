package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"library-api/internals/config"
	"library-api/internals/handlers"
	"library-api/internals/mailer"
	"library-api/internals/overdue"
	"library-api/internals/storage"
)

func main() {
	// Missing .env is fine; env vars may come from the shell instead.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.MustLoad()

	store, err := storage.Open(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()
	logger.Info("database ready", "path", cfg.Database.SQLitePath)

	sender := mailer.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	mail := mailer.NewService(sender, cfg.SMTP.Workers, logger)

	sweeper := overdue.New(store, mail, logger, nil)
	if err := sweeper.Start(cfg.Library.SweepInterval); err != nil {
		log.Fatalf("Failed to start overdue sweeper: %v", err)
	}

	api := handlers.New(handlers.Options{
		Store:       store,
		Mail:        mail,
		Log:         logger,
		EmailDomain: cfg.Library.EmailDomain,
		LoanPeriod:  cfg.Library.LoanPeriod,
		OtpTTL:      cfg.Library.OtpTTL,
	})

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS", "PATCH", "PUT", "DELETE"},
		AllowedHeaders: []string{"Content-Type"},
	})
	handler := c.Handler(api.Router())

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: handler,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-done
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to gracefully shutdown server: %v", err)
	}

	sweeper.Stop()
	mail.Close()
	logger.Info("server stopped")
}
