package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig 聚合运行时配置，尽量通过环境变量注入，避免硬编码。
type AppConfig struct {
	HTTPAddr string
	DBPath   string

	RedisAddr string
	RedisDB   int

	// Kafka 集群地址（逗号分隔）、Topic、消费者组
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Redis Stream outbox（API 原子入流，Relay 异步转 Kafka）
	LedgerEventStream   string
	LedgerEventGroup    string
	LedgerEventConsumer string

	// 会话：有效期、过期清理的 cron 表达式
	SessionTTL       time.Duration
	SessionSweepCron string

	// 口令散列强度
	BcryptCost int

	// 库存写接口限流与库存缓存策略
	StockRateLimit  int
	StockRateWindow time.Duration
	StockCacheTTL   time.Duration
}

// Load 读取并校验配置，缺失时使用默认值。
func Load() (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DBPath:              getEnv("DB_PATH", "shoptrack.db"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:             0,
		KafkaBrokers:        splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "shoptrack-ledger-events"),
		KafkaGroupID:        getEnv("KAFKA_GROUP_ID", "shoptrack-ledger-consumer"),
		LedgerEventStream:   getEnv("LEDGER_EVENT_STREAM", "shoptrack:ledger_events"),
		LedgerEventGroup:    getEnv("LEDGER_EVENT_GROUP", "shoptrack-relay-group"),
		LedgerEventConsumer: getEnv("LEDGER_EVENT_CONSUMER", "shoptrack-relay-1"),
		SessionTTL:          30 * 24 * time.Hour,
		SessionSweepCron:    getEnv("SESSION_SWEEP_CRON", "@hourly"),
		BcryptCost:          10,
		StockRateLimit:      100,
		StockRateWindow:     time.Second,
		StockCacheTTL:       24 * time.Hour,
	}

	redisDB, err := getEnvInt("REDIS_DB", cfg.RedisDB)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	cfg.RedisDB = redisDB

	ttlDays, err := getEnvInt("SESSION_TTL_DAYS", int(cfg.SessionTTL.Hours()/24))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid SESSION_TTL_DAYS: %w", err)
	}
	if ttlDays <= 0 {
		return AppConfig{}, fmt.Errorf("SESSION_TTL_DAYS must be > 0")
	}
	cfg.SessionTTL = time.Duration(ttlDays) * 24 * time.Hour

	bcryptCost, err := getEnvInt("BCRYPT_COST", cfg.BcryptCost)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}
	if bcryptCost < 4 || bcryptCost > 31 {
		return AppConfig{}, fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}
	cfg.BcryptCost = bcryptCost

	rateLimit, err := getEnvInt("STOCK_RATE_LIMIT", cfg.StockRateLimit)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid STOCK_RATE_LIMIT: %w", err)
	}
	if rateLimit <= 0 {
		return AppConfig{}, fmt.Errorf("STOCK_RATE_LIMIT must be > 0")
	}
	cfg.StockRateLimit = rateLimit

	rateWindowSec, err := getEnvInt("STOCK_RATE_WINDOW_SEC", int(cfg.StockRateWindow.Seconds()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid STOCK_RATE_WINDOW_SEC: %w", err)
	}
	if rateWindowSec <= 0 {
		return AppConfig{}, fmt.Errorf("STOCK_RATE_WINDOW_SEC must be > 0")
	}
	cfg.StockRateWindow = time.Duration(rateWindowSec) * time.Second

	stockTTLHour, err := getEnvInt("STOCK_CACHE_TTL_HOUR", int(cfg.StockCacheTTL.Hours()))
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid STOCK_CACHE_TTL_HOUR: %w", err)
	}
	if stockTTLHour <= 0 {
		return AppConfig{}, fmt.Errorf("STOCK_CACHE_TTL_HOUR must be > 0")
	}
	cfg.StockCacheTTL = time.Duration(stockTTLHour) * time.Hour

	if len(cfg.KafkaBrokers) == 0 {
		return AppConfig{}, fmt.Errorf("KAFKA_BROKERS must not be empty")
	}
	if cfg.KafkaTopic == "" {
		return AppConfig{}, fmt.Errorf("KAFKA_TOPIC must not be empty")
	}
	if cfg.KafkaGroupID == "" {
		return AppConfig{}, fmt.Errorf("KAFKA_GROUP_ID must not be empty")
	}
	if cfg.LedgerEventStream == "" {
		return AppConfig{}, fmt.Errorf("LEDGER_EVENT_STREAM must not be empty")
	}
	if cfg.LedgerEventGroup == "" {
		return AppConfig{}, fmt.Errorf("LEDGER_EVENT_GROUP must not be empty")
	}
	if cfg.LedgerEventConsumer == "" {
		return AppConfig{}, fmt.Errorf("LEDGER_EVENT_CONSUMER must not be empty")
	}
	if cfg.SessionSweepCron == "" {
		return AppConfig{}, fmt.Errorf("SESSION_SWEEP_CRON must not be empty")
	}

	return cfg, nil
}

// getEnv 读取字符串环境变量，若为空则返回默认值。
func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// getEnvInt 读取整数环境变量，若为空则返回默认值。
func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

// splitCSV 将逗号分隔字符串解析为字符串切片。
func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
