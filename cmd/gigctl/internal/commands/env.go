package commands

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gigmarket/internal/app"
	"gigmarket/internal/config"
	"gigmarket/internal/domain"
	"gigmarket/internal/repository/sqlite"
	"gigmarket/internal/session"
)

// env is what every sub-command works with once the session has been restored.
type env struct {
	cfg    config.Config
	logger *logrus.Logger
	app    *app.App
	db     *sql.DB
	store  *session.Store
	out    io.Writer
}

func newEnv(ctx context.Context, out io.Writer) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := app.NewLogger(cfg)
	logger.SetOutput(os.Stderr)

	services, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	db, err := sqlite.Open(cfg.Session.Path)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	snapshots := sqlite.NewSnapshotRepository(db)
	if err := snapshots.Init(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init session store: %w", err)
	}

	store := session.NewStore(session.Config{
		Accounts:      services.Accounts,
		Profiles:      services.Profiles,
		Snapshots:     snapshots,
		StorageKey:    cfg.Session.StorageKey,
		RefreshMargin: cfg.RefreshMargin(),
		Logger:        logger,
	})
	if err := store.Init(ctx); err != nil {
		logger.WithError(err).Warn("session not verified, using the stored one")
	}

	return &env{
		cfg:    cfg,
		logger: logger,
		app:    services,
		db:     db,
		store:  store,
		out:    out,
	}, nil
}

func (e *env) Close() error {
	if err := e.app.Close(); err != nil {
		e.logger.WithError(err).Debug("close realtime")
	}
	return e.db.Close()
}

// signedIn returns the current user and a context carrying its access token.
func (e *env) signedIn(ctx context.Context) (*domain.User, context.Context, error) {
	user := e.store.Current()
	if user == nil {
		return nil, nil, fmt.Errorf("%w: run gigctl login first", session.ErrNotSignedIn)
	}
	return user, e.store.AuthContext(ctx), nil
}

func (e *env) print(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type envKey struct{}

func withEnv(cmd *cobra.Command, e *env) {
	cmd.SetContext(context.WithValue(cmd.Context(), envKey{}, e))
}

func envFrom(cmd *cobra.Command) *env {
	e, _ := cmd.Context().Value(envKey{}).(*env)
	return e
}
