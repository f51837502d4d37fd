// Command cpindexer wires the triggers layer to the synchronization engine
// against the reference SQLite store and Google People API source. It is
// deliberately thin — the engine, not the CLI, is the hard core.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"

	"github.com/cpindexer/cpindexer/internal/config"
	"github.com/cpindexer/cpindexer/internal/contactstore/sqlite"
	"github.com/cpindexer/cpindexer/internal/cp2/peopleapi"
	"github.com/cpindexer/cpindexer/internal/decode"
	"github.com/cpindexer/cpindexer/internal/decode/label"
	"github.com/cpindexer/cpindexer/internal/engine"
	"github.com/cpindexer/cpindexer/internal/events"
	"github.com/cpindexer/cpindexer/internal/settings"
	"github.com/cpindexer/cpindexer/internal/stats"
	"github.com/cpindexer/cpindexer/internal/triggers"
)

func main() {
	tokenFile := flag.String("token-file", "", "path to a JSON-encoded oauth2.Token for the People API account")
	clientID := flag.String("client-id", os.Getenv("CPINDEXER_CLIENT_ID"), "OAuth2 client id")
	clientSecret := flag.String("client-secret", os.Getenv("CPINDEXER_CLIENT_SECRET"), "OAuth2 client secret")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("cpindexer: load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := sqlite.Open(cfg.SettingsPath + ".index.db")
	if err != nil {
		logger.Error("cpindexer: open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	if err := store.RegisterSchema(ctx, false); err != nil {
		logger.Error("cpindexer: register schema", "error", err)
		os.Exit(1)
	}

	source, err := newSource(ctx, *tokenFile, *clientID, *clientSecret)
	if err != nil {
		logger.Error("cpindexer: build contact source", "error", err)
		os.Exit(1)
	}

	settingsStore := settings.New(cfg.SettingsPath, logger)
	resolver := label.NewResolver(cfg.Locale)
	decoder := decode.New(resolver)
	bus := events.NewBus()

	bus.SubscribeAll(func(ev events.Event) {
		logger.Info("engine event", "type", ev.Type(), "at", ev.Timestamp())
	})

	eng := engine.New(source, store, settingsStore, decoder, cfg.EngineConfig(), logger, bus, func(s *stats.UpdateStats) {
		snap := s.Snapshot()
		logger.Info("run completed",
			"run_id", s.RunID.String(),
			"type", s.Type.String(),
			"inserted", snap.Inserted,
			"updated", snap.Updated,
			"deleted", snap.Deleted,
			"update_failed", snap.UpdateFailed,
			"delete_failed", snap.DeleteFailed,
		)
	})

	config.Watch(func(c config.Config) {
		eng.SetConfig(c.EngineConfig())
	})

	t := triggers.New(eng, settingsStore, time.Duration(cfg.FullUpdateIntervalMs)*time.Millisecond, logger)
	t.Start(ctx)

	<-ctx.Done()
	logger.Info("cpindexer: shutting down")
	t.Stop()
}

func newSource(ctx context.Context, tokenFile, clientID, clientSecret string) (*peopleapi.Source, error) {
	oauthCfg := peopleapi.OAuth2Config(clientID, clientSecret, "http://localhost:8089/callback")

	token := &oauth2.Token{}
	if tokenFile != "" {
		raw, err := os.ReadFile(tokenFile)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, token); err != nil {
			return nil, err
		}
	}

	client := oauthCfg.Client(ctx, token)
	return peopleapi.New(ctx, client)
}
