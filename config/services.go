package config

import (
	"context"
	"fmt"

	"github.com/periodcalm/period-calm-website-sub000/services"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func NewLogger(cfg *Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.IsDev() {
		zc = zap.NewDevelopmentConfig()
	}
	lvl, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	zc.Level = lvl
	return zc.Build()
}

// NewCycleStore opens the configured record backend. The returned close
// function is never nil.
func NewCycleStore(ctx context.Context, cfg *Config, log *zap.Logger) (services.CycleStore, func() error, error) {
	noop := func() error { return nil }
	switch cfg.CycleStore {
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, noop, fmt.Errorf("REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, noop, fmt.Errorf("redis ping: %w", err)
		}
		return services.NewRedisCycleStore(rdb, log), rdb.Close, nil
	case "memory":
		log.Warn("cycle records are kept in memory and lost on restart")
		return services.NewMemoryCycleStore(log), noop, nil
	default:
		s, err := services.NewFileCycleStore(cfg.CycleStoreDir, log)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	}
}

// LoadAWS returns ok=false when no region is configured; every AWS feature is
// then switched off.
func LoadAWS(ctx context.Context, cfg *Config) (aws.Config, bool, error) {
	if cfg.AWSRegion == "" {
		return aws.Config{}, false, nil
	}
	ac, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return aws.Config{}, false, fmt.Errorf("aws config: %w", err)
	}
	return ac, true, nil
}
