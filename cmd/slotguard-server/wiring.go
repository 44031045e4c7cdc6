package main

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"

	"slotguard/backend/internal/calendar"
	"slotguard/backend/internal/config"
	"slotguard/backend/internal/events"
	"slotguard/backend/internal/sealer"
	"slotguard/backend/internal/store"
	"slotguard/backend/internal/store/memory"
	"slotguard/backend/internal/store/postgres"
)

func newLogger(format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}
	var h slog.Handler
	if format == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(h).With(slog.String("service", serviceName))
}

type stores struct {
	bookings store.BookingRepository
	// creds is nil when no linked calendar accounts can be read.
	creds store.CredentialStore
	close func()
}

func openStores(cfg config.Config, log *slog.Logger) (*stores, error) {
	if cfg.Store.Backend == config.BackendMemory {
		log.Warn("using in-memory store; bookings are lost on restart")
		return &stores{
			bookings: memory.NewBookingStore(),
			creds:    memory.NewCredentialStore(),
			close:    func() {},
		}, nil
	}

	log.Info("connecting to database", databaseLogArgs(cfg.Database.URL)...)
	db, err := postgres.Open(cfg.Database.URL, postgres.PoolConfig{
		Driver:          cfg.Database.Driver,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.Database.URL)...)
		log.Error("database connection failed", args...)
		return nil, err
	}

	var once sync.Once
	st := &stores{
		bookings: postgres.NewBookingRepo(db, log),
		close: func() {
			once.Do(func() {
				if err := postgres.Close(db); err != nil {
					log.Warn("database close failed", slog.Any("err", err))
				}
			})
		},
	}

	if cfg.SealKey == "" {
		log.Warn("credentials.seal_key not set; linked calendars are unavailable")
		return st, nil
	}
	s, err := sealer.FromBase64(cfg.SealKey)
	if err != nil {
		st.close()
		return nil, fmt.Errorf("credentials.seal_key: %w", err)
	}
	st.creds = postgres.NewCredentialRepo(db, s)
	return st, nil
}

func newOracle(cfg config.Config, creds store.CredentialStore, log *slog.Logger) (calendar.Oracle, error) {
	if !cfg.Calendar.Enabled || creds == nil {
		log.Info("external calendar check disabled")
		return calendar.Disabled{}, nil
	}

	oauthCfg := calendar.GoogleOAuthConfig(cfg.Google.ClientID, cfg.Google.ClientSecret)
	if oauthCfg == nil {
		log.Warn("google oauth client not configured; expired access tokens will not be refreshed")
	}
	client := calendar.NewGoogleClient(oauthCfg, creds, log)

	return calendar.NewAdapter(creds, client, calendar.Config{
		CalendarID: cfg.Calendar.CalendarID,
		Timeout:    cfg.Calendar.Timeout,
		RateLimit:  cfg.Calendar.RateLimit,
		Burst:      cfg.Calendar.Burst,
	}, log)
}

func newPublisher(cfg config.Config, log *slog.Logger) (events.Publisher, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return events.Nop{}, func() {}, nil
	}

	p, err := events.NewKafkaPublisher(events.KafkaConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	log.Info("publishing booking events", slog.String("topic", cfg.Kafka.Topic), slog.Int("brokers", len(cfg.Kafka.Brokers)))
	return p, func() {
		if err := p.Close(); err != nil {
			log.Warn("event publisher close failed", slog.Any("err", err))
		}
	}, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
