// Package app wires configuration into the client components: token
// stores, the auth client, the API client, and preference storage.
package app

import (
	"fmt"
	"log/slog"

	"github.com/nightjar-app/nightjar-go/internal/api"
	"github.com/nightjar-app/nightjar-go/internal/auth"
	"github.com/nightjar-app/nightjar-go/internal/prefs"
	"github.com/nightjar-app/nightjar-go/internal/session"
)

// App holds the assembled client components.
type App struct {
	cfg *Config

	Session *session.Store
	Auth    auth.Provider
	API     *api.Client
	Prefs   *prefs.Store
}

// New creates an App from configuration. Construction performs no
// network I/O; token reads happen on first use.
func New(cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	sessionBackend, err := cfg.Auth.NewSessionStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}
	sessionStore := session.New(sessionBackend)

	clientOpts := []api.ClientOption{
		api.WithSession(sessionStore),
		api.WithBatchLimit(cfg.API.BatchLimit),
	}

	// Env storage carries a static token with no refresh material; the
	// client then runs without 401 recovery.
	var authClient auth.Provider
	refreshBackend, err := cfg.Auth.NewRefreshStore()
	if err != nil {
		slog.Debug("running without session refresh", "reason", err)
	} else {
		client, err := auth.NewClient(cfg.API.BaseURL, refreshBackend)
		if err != nil {
			return nil, fmt.Errorf("failed to create auth client: %w", err)
		}
		authClient = client
		clientOpts = append(clientOpts, api.WithRefresher(client))
	}

	apiClient, err := api.New(cfg.API.BaseURL, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	prefStore, err := prefs.New(cfg.Prefs.File)
	if err != nil {
		return nil, fmt.Errorf("failed to create preference store: %w", err)
	}

	return &App{
		cfg:     cfg,
		Session: sessionStore,
		Auth:    authClient,
		API:     apiClient,
		Prefs:   prefStore,
	}, nil
}
