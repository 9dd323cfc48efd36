package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"school_inventory/config"
	"school_inventory/db"
	"school_inventory/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Short aliases so handlers don't need to import gin for these.
type Ctx = gin.Context
type H = gin.H

// App aggregates the process-wide dependencies.
type App struct {
	Router   *gin.Engine
	DB       *gorm.DB
	RDB      *redis.Client // nil when REDIS_ADDR is empty
	Config   config.Config
	Log      *slog.Logger
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
}

// MustNew connects to Postgres and, when configured, Redis. Any failure is fatal.
func MustNew(cfg config.Config) *App {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	// --- DB: Postgres ---
	dbConn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Error("database", "error", err)
		os.Exit(1)
	}
	log.Info("database connected")

	// --- Redis ---
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Error("redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("REDIS_ADDR not set: idempotent borrows and write throttling disabled")
	}

	return New(cfg, dbConn, rdb, log)
}

// New wires an App around already opened connections.
func New(cfg config.Config, dbConn *gorm.DB, rdb *redis.Client, log *slog.Logger) *App {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// --- Gin ---
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log, m))
	useCORS(r, cfg.WebOrigin)

	return &App{Router: r, DB: dbConn, RDB: rdb, Config: cfg, Log: log, Metrics: m, Registry: reg}
}

func (a *App) Close() {
	if a.RDB != nil {
		_ = a.RDB.Close()
	}
	if a.DB == nil {
		return
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
