package config

import (
	"log"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов архива.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	AMQP struct {
		URL   string `envconfig:"AMQP_URL"`
		Queue string `envconfig:"RAW_LINES_QUEUE" default:"raw_lines"`
	} `envconfig:""`

	Archive struct {
		// PageSize менять на работающем архиве нельзя без внешнего сброса
		// кэша постоянных ссылок: закэшированные страницы считались под
		// старый размер.
		PageSize   int `envconfig:"PAGE_SIZE" default:"150"`
		BigChannel int `envconfig:"BIG_CHANNEL" default:"25000"`
	} `envconfig:""`

	Ingest struct {
		IgnorePrefixes []string `envconfig:"IGNORE_PREFIXES" default:"!-"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
