package config

import "time"

type Asynq struct {
	Queue       string `env:"ASYNQ_QUEUE" envDefault:"rating"`
	Concurrency int    `env:"ASYNQ_CONCURRENCY" envDefault:"1"`
}

type Engine struct {
	PublishedCacheTTL     time.Duration `env:"ENGINE_PUBLISHED_CACHE_TTL" envDefault:"5m"`
	PublishedCacheCleanup time.Duration `env:"ENGINE_PUBLISHED_CACHE_CLEANUP" envDefault:"10m"`
	DriftScanInterval     time.Duration `env:"ENGINE_DRIFT_SCAN_INTERVAL" envDefault:"15m"`
}
