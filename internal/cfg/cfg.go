package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/catalog-sync/pkg/e"
	"github.com/DRSN-tech/catalog-sync/pkg/logger"
	"github.com/jimlawless/whereami"
)

type Config struct {
	Http    *HTTPConfig
	Db      *PGDBCfg
	Redis   *RedisCfg
	Kafka   *KafkaCfg // nil, если KAFKA_BROKERS не задан (dead-letter отключен)
	Records *RecordsCfg
	Catalog *CatalogCfg
	Sync    *SyncCfg
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	TermTTL     time.Duration // TTL кэша соответствий имя термина -> id в каталоге
}

type KafkaCfg struct {
	Brokers         []string
	DeadLetterTopic string
	NetworkMode     string
}

// RecordsCfg — доступ к хранилищу записей (Store A).
type RecordsCfg struct {
	BaseURL       string
	Token         string
	BaseID        string
	Table         string
	WebhookSecret string
	Timeout       time.Duration
}

// CatalogCfg — доступ к каталог-сервису (Store B).
type CatalogCfg struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	WebhookSecret  string
	Timeout        time.Duration
}

// SyncCfg — параметры движка синхронизации.
type SyncCfg struct {
	TrackerTTL   time.Duration // окно подавления обратных записей
	PageSize     int           // размер страницы при полной синхронизации
	MaxRetries   int           // 0 — событие отбрасывается после первой неудачи (базовый дизайн)
	RetryBackoff time.Duration
	RetryMax     time.Duration
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	records, err := loadRecordsCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	catalog, err := loadCatalogCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	sync, err := loadSyncCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Http:    http,
		Db:      db,
		Redis:   redis,
		Kafka:   kafka,
		Records: records,
		Catalog: catalog,
		Sync:    sync,
	}, nil
}

func loadRecordsCfg() (*RecordsCfg, error) {
	const (
		defaultBaseURL = "https://api.records.example.com/v0"
		defaultTable   = "Products"
		defaultTimeout = 30 * time.Second
	)

	token := getEnv("RECORDS_API_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("RECORDS_API_TOKEN environment variable is required")
	}

	baseID := getEnv("RECORDS_BASE_ID")
	if baseID == "" {
		return nil, fmt.Errorf("RECORDS_BASE_ID environment variable is required")
	}

	timeout, err := parseDurationEnv("RECORDS_TIMEOUT", defaultTimeout)
	if err != nil {
		return nil, e.Wrap("RECORDS_TIMEOUT", err)
	}

	return &RecordsCfg{
		BaseURL:       getEnvOrDefault("RECORDS_BASE_URL", defaultBaseURL),
		Token:         token,
		BaseID:        baseID,
		Table:         getEnvOrDefault("RECORDS_TABLE", defaultTable),
		WebhookSecret: getEnv("RECORDS_WEBHOOK_SECRET"),
		Timeout:       timeout,
	}, nil
}

func loadCatalogCfg() (*CatalogCfg, error) {
	const defaultTimeout = 30 * time.Second

	baseURL := getEnv("CATALOG_BASE_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("CATALOG_BASE_URL environment variable is required")
	}

	key := getEnv("CATALOG_CONSUMER_KEY")
	secret := getEnv("CATALOG_CONSUMER_SECRET")
	if key == "" || secret == "" {
		return nil, fmt.Errorf("CATALOG_CONSUMER_KEY and CATALOG_CONSUMER_SECRET are required")
	}

	timeout, err := parseDurationEnv("CATALOG_TIMEOUT", defaultTimeout)
	if err != nil {
		return nil, e.Wrap("CATALOG_TIMEOUT", err)
	}

	return &CatalogCfg{
		BaseURL:        baseURL,
		ConsumerKey:    key,
		ConsumerSecret: secret,
		WebhookSecret:  getEnv("CATALOG_WEBHOOK_SECRET"),
		Timeout:        timeout,
	}, nil
}

func loadSyncCfg() (*SyncCfg, error) {
	const (
		defaultTrackerTTL   = 30 * time.Second
		defaultPageSize     = 100
		defaultMaxRetries   = 0
		defaultRetryBackoff = 500 * time.Millisecond
		defaultRetryMax     = 10 * time.Second
	)

	ttl, err := parseDurationEnv("SYNC_TRACKER_TTL", defaultTrackerTTL)
	if err != nil {
		return nil, e.Wrap("SYNC_TRACKER_TTL", err)
	}

	pageSize, err := parseIntEnv("SYNC_PAGE_SIZE", defaultPageSize)
	if err != nil {
		return nil, e.Wrap("SYNC_PAGE_SIZE", err)
	}

	maxRetries, err := parseIntEnv("SYNC_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		return nil, e.Wrap("SYNC_MAX_RETRIES", err)
	}

	retryBackoff, err := parseDurationEnv("SYNC_RETRY_BACKOFF", defaultRetryBackoff)
	if err != nil {
		return nil, e.Wrap("SYNC_RETRY_BACKOFF", err)
	}

	retryMax, err := parseDurationEnv("SYNC_RETRY_MAX", defaultRetryMax)
	if err != nil {
		return nil, e.Wrap("SYNC_RETRY_MAX", err)
	}

	return &SyncCfg{
		TrackerTTL:   ttl,
		PageSize:     pageSize,
		MaxRetries:   maxRetries,
		RetryBackoff: retryBackoff,
		RetryMax:     retryMax,
	}, nil
}

// loadKafkaCfg возвращает nil без ошибки, если брокеры не заданы:
// dead-letter публикация — опциональное усиление базового дизайна.
func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultTopic       = "catalog-sync.dead-letter"
		defaultNetworkMode = "tcp"
	)

	brokerStr := getEnv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, nil
	}

	return &KafkaCfg{
		Brokers:         splitAndTrim(brokerStr),
		DeadLetterTopic: getEnvOrDefault("KAFKA_DEAD_LETTER_TOPIC", defaultTopic),
		NetworkMode:     getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 10 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost    = "localhost"
		defaultPort    = "5432"
		defaultSSLMode = "disable"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:     getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     user,
		Password: password,
		DBName:   dbName,
		SSLMode:  getEnvOrDefault("SSL_MODE", defaultSSLMode),
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
		defaultTermTTL      = 12 * time.Hour
	)

	addr := getEnvOrDefault("REDIS_ADDR", defaultAddr)
	password := getEnv("REDIS_PASSWORD")
	user := getEnv("REDIS_USER")

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	termTTL, err := parseDurationEnv("TERM_CACHE_TTL", defaultTermTTL)
	if err != nil {
		log.Errorf(err, "invalid TERM_CACHE_TTL")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:        addr,
		Password:    password,
		User:        user,
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		TermTTL:     termTTL,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
