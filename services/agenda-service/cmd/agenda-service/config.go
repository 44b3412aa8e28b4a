package main

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/md-rashed-zaman/clinicagenda/libs/config"
	"github.com/md-rashed-zaman/clinicagenda/libs/httpx"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/availability"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/view"
)

type serviceConfig struct {
	Service  string
	Port     string
	GRPCPort string

	DatabaseURL   string
	ProvidersJSON string
	KafkaBrokers  string
	OutboxMax     int

	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RateLimitPerMinute int
	RateLimitFailOpen  bool
	RateLimitPrefix    string

	CORS           httpx.CORSPolicy
	BodyLimit      int64
	RequestTimeout time.Duration

	Grid           view.GridConfig
	Location       *time.Location
	RejectOverlaps bool
	SeedDemo       bool
}

func loadConfig() (serviceConfig, error) {
	cfg := serviceConfig{
		Service:       config.String("SERVICE_NAME", "agenda-service"),
		GRPCPort:      config.String("GRPC_PORT", ""),
		DatabaseURL:   config.String("DATABASE_URL", ""),
		ProvidersJSON: config.String("PROVIDERS_JSON", ""),
		KafkaBrokers:  config.String("KAFKA_BROKERS", ""),
		OutboxMax:     config.Int("OUTBOX_MAX_PENDING", 1000),

		RedisAddr:          config.String("REDIS_ADDR", ""),
		RedisPassword:      config.String("REDIS_PASSWORD", ""),
		RedisDB:            config.Int("REDIS_DB", 0),
		RateLimitPerMinute: config.Int("RATE_LIMIT_PER_MINUTE", 120),
		RateLimitFailOpen:  config.Bool("RATE_LIMIT_FAIL_OPEN", true),
		RateLimitPrefix:    config.String("RATE_LIMIT_PREFIX", "agenda:rl"),

		CORS: httpx.CORSPolicy{
			AllowedOrigins:   config.List("CORS_ALLOWED_ORIGINS", ""),
			AllowedMethods:   config.List("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS"),
			AllowedHeaders:   config.List("CORS_ALLOWED_HEADERS", "Content-Type,X-Request-Id"),
			AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           config.Duration("CORS_MAX_AGE", 10*time.Minute),
		},
		BodyLimit:      int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20)),
		RequestTimeout: config.Duration("REQUEST_TIMEOUT", 10*time.Second),

		RejectOverlaps: config.Bool("REJECT_OVERLAPS", false),
		SeedDemo:       config.Bool("SEED_DEMO", false),
	}

	port, err := config.Port("PORT", "8080")
	if err != nil {
		return serviceConfig{}, err
	}
	cfg.Port = port
	if cfg.GRPCPort != "" {
		if _, err := config.Port("GRPC_PORT", ""); err != nil {
			return serviceConfig{}, err
		}
	}

	cfg.Location, err = time.LoadLocation(config.String("CLINIC_TIMEZONE", "America/Sao_Paulo"))
	if err != nil {
		return serviceConfig{}, fmt.Errorf("CLINIC_TIMEZONE: %w", err)
	}
	cfg.Grid, err = gridFromEnv()
	if err != nil {
		return serviceConfig{}, err
	}
	return cfg, nil
}

func gridFromEnv() (view.GridConfig, error) {
	g := view.DefaultGridConfig()

	weekStart, err := parseWeekday(config.String("WEEK_START", "sunday"))
	if err != nil {
		return g, err
	}
	g.WeekStart = weekStart

	if g.DayStart, err = availability.ParseClock(config.String("DAY_START", "07:00")); err != nil {
		return g, fmt.Errorf("DAY_START: %w", err)
	}
	// 24:00 is not a clock time but is a valid end of day.
	if end := config.String("DAY_END", "19:00"); end == "24:00" {
		g.DayEnd = 24 * 60
	} else if g.DayEnd, err = availability.ParseClock(end); err != nil {
		return g, fmt.Errorf("DAY_END: %w", err)
	}
	if g.DayEnd <= g.DayStart {
		return g, fmt.Errorf("DAY_END must be after DAY_START")
	}
	g.SlotStep = config.Int("SLOT_MINUTES", 30)

	if g.Align, err = view.ParseAlign(config.String("GRID_ALIGN", "exact")); err != nil {
		return g, fmt.Errorf("GRID_ALIGN: %w", err)
	}
	return g, nil
}

func parseWeekday(raw string) (time.Weekday, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == raw {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("WEEK_START: unknown weekday %q", raw)
}
