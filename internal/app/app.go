// Package app assembles the backend client, repositories and services shared by
// the HTTP server and the command line client.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"gigmarket/internal/baas"
	"gigmarket/internal/config"
	"gigmarket/internal/live"
	"gigmarket/internal/repository/rest"
	"gigmarket/internal/service"
	"gigmarket/internal/storage"
)

// App bundles the wired services.
type App struct {
	Client *baas.Client
	Feed   live.Feed

	Accounts  service.AccountService
	Profiles  service.ProfileService
	Jobs      service.JobService
	Proposals service.ProposalService
	Messages  service.MessageService
	Payments  service.PaymentService

	// Storage is nil when no bucket is configured.
	Storage storage.Service
}

// NewLogger returns a logger at the configured level.
func NewLogger(cfg config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func New(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := baas.New(baas.Config{
		URL:    cfg.BaaS.URL,
		APIKey: cfg.BaaS.AnonKey,
		Schema: cfg.BaaS.Schema,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("baas client: %w", err)
	}

	var objects storage.Service
	if strings.TrimSpace(cfg.Storage.Bucket) != "" {
		s3Client, err := storage.NewS3Client(ctx, storage.S3Options{
			Region:   cfg.Storage.Region,
			Endpoint: cfg.Storage.Endpoint,
			Profile:  cfg.AWS.Profile,
		})
		if err != nil {
			return nil, fmt.Errorf("setup storage: %w", err)
		}
		objects = storage.NewS3Service(s3Client)
		logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	}

	profileRepo := rest.NewProfileRepository(client)
	jobRepo := rest.NewJobRepository(client)
	proposalRepo := rest.NewProposalRepository(client)

	return &App{
		Client:    client,
		Feed:      live.RealtimeFeed{Client: client.Realtime()},
		Accounts:  service.NewAccountService(client.Auth(), profileRepo, logger),
		Profiles:  service.NewProfileService(profileRepo, objects, service.AvatarOptions{Bucket: cfg.Storage.Bucket, KeyPrefix: cfg.Storage.KeyPrefix}),
		Jobs:      service.NewJobService(jobRepo, profileRepo),
		Proposals: service.NewProposalService(proposalRepo, jobRepo, profileRepo, logger),
		Messages:  service.NewMessageService(rest.NewMessageRepository(client)),
		Payments:  service.NewPaymentService(rest.NewMilestoneRepository(client), rest.NewPaymentRepository(client), jobRepo),
		Storage:   objects,
	}, nil
}

// Close releases the realtime connection.
func (a *App) Close() error {
	return a.Client.Realtime().Close()
}
