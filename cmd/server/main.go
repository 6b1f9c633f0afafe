// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	_ "github.com/tomtom215/salondesk/docs" // registers the swagger spec
	"github.com/tomtom215/salondesk/internal/airtable"
	"github.com/tomtom215/salondesk/internal/analytics"
	"github.com/tomtom215/salondesk/internal/api"
	"github.com/tomtom215/salondesk/internal/auth"
	"github.com/tomtom215/salondesk/internal/config"
	"github.com/tomtom215/salondesk/internal/conversation"
	"github.com/tomtom215/salondesk/internal/logging"
	"github.com/tomtom215/salondesk/internal/messaging"
	"github.com/tomtom215/salondesk/internal/metrics"
	"github.com/tomtom215/salondesk/internal/namecache"
	"github.com/tomtom215/salondesk/internal/notify"
	"github.com/tomtom215/salondesk/internal/supervisor"
	"github.com/tomtom215/salondesk/internal/supervisor/services"
	ws "github.com/tomtom215/salondesk/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	issueToken := flag.String("issue-token", "", "print a bearer token for this subject and exit")
	tokenTTL := flag.Duration("token-ttl", auth.DefaultTokenTTL, "lifetime of the issued token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	if *issueToken != "" {
		if err := printToken(cfg.Security, *issueToken, *tokenTTL); err != nil {
			logging.Fatal().Err(err).Msg("Failed to issue token")
		}
		return
	}

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Salondesk stopped with an error")
	}
}

func printToken(sec config.SecurityConfig, subject string, ttl time.Duration) error {
	manager, err := auth.NewJWTManager(sec)
	if err != nil {
		return err
	}
	token, err := manager.GenerateToken(subject, "staff", ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

//nolint:gocyclo // sequential wiring of every component
func run(cfg *config.Config) error {
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Bool("airtable_configured", cfg.Airtable.Configured()).
		Bool("gateway_configured", cfg.Messaging.GatewayURL != "").
		Bool("auth_enabled", cfg.Security.JWTSecret != "").
		Msg("Starting Salondesk")

	if cfg.IsProduction() && cfg.HasWildcardCORS() {
		logging.Warn().Msg("CORS_ORIGINS allows any origin in production")
	}

	// Record store, name cache, analytics.
	store := airtable.New(cfg.Airtable)
	names := namecache.New(namecache.StoreFetcher{
		Store: store,
		Tables: map[namecache.Kind]string{
			namecache.KindClient:   cfg.Airtable.ClientsTable,
			namecache.KindService:  cfg.Airtable.ServicesTable,
			namecache.KindEmployee: cfg.Airtable.EmployeesTable,
		},
	})
	engine := analytics.NewEngine(store, names, analytics.Tables{
		Appointments: cfg.Airtable.AppointmentsTable,
		Clients:      cfg.Airtable.ClientsTable,
		Services:     cfg.Airtable.ServicesTable,
		Employees:    cfg.Airtable.EmployeesTable,
	})
	if !cfg.Airtable.Configured() {
		logging.Warn().Msg("Airtable not configured: serving demo clients, writes return 503")
	}

	// Messaging.
	sender := messaging.New(cfg.Messaging)
	convs, err := conversation.Open(cfg.Messaging.ConversationsDir)
	if err != nil {
		return fmt.Errorf("open conversation store: %w", err)
	}

	tree := supervisor.NewSupervisorTree(logging.NewComponentSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	tree.AddDataService(services.NewCloserService("conversation-store", convs))

	// Notifications.
	natsURL := cfg.Notify.NATSURL
	if cfg.Notify.Embedded {
		embedded, err := notify.StartEmbeddedServer(cfg.Notify)
		if err != nil {
			_ = convs.Close()
			return fmt.Errorf("start embedded NATS: %w", err)
		}
		if natsURL == "" {
			natsURL = embedded.ClientURL()
		}
		tree.AddMessagingService(embedded)
	}
	notifier, err := notify.New(cfg.Notify, natsURL)
	if err != nil {
		_ = convs.Close()
		return fmt.Errorf("create notifier: %w", err)
	}
	tree.AddMessagingService(services.NewCloserService("notifier", notifier))

	hub := ws.NewHub()
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(notify.NewForwarder(notifier, hub))

	// Optional bearer auth on writes.
	var jwtManager *auth.JWTManager
	if cfg.Security.JWTSecret != "" {
		jwtManager, err = auth.NewJWTManager(cfg.Security)
		if err != nil {
			_ = convs.Close()
			return fmt.Errorf("create JWT manager: %w", err)
		}
	}

	handler := api.NewHandler(api.Deps{
		Config:        cfg,
		Store:         store,
		Analytics:     engine,
		Sender:        sender,
		Conversations: convs,
		Notifier:      notifier,
		Hub:           hub,
		JWT:           jwtManager,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// The analytics fan-out can take a while against a slow Airtable base.
		WriteTimeout: 2 * cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().
		Str("addr", server.Addr).
		Str("notify_transport", notifier.Transport()).
		Msg("HTTP server service added")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := tree.ServeBackground(ctx)
	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for services to stop")
		treeErr = <-errCh
	case treeErr = <-errCh:
	}
	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		logging.Error().Err(treeErr).Msg("Supervisor tree error")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("Salondesk stopped")
	return nil
}
