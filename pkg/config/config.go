package config

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"time"

	"pisos/pkg/client"
	"pisos/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port     string
	LogLevel string

	AdminToken         string
	CORSAllowedOrigins []string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout     time.Duration
	IdempotencyTTL     time.Duration
	IdempotencyBackend string
	MaxRequestSize     int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	LockBackend          string
	LockTTL              time.Duration
	LockWaitTimeout      time.Duration
	MaxAdmissionAttempts int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaEnabled        bool
	ListingsEventsTopic string
	ReservationsTopic   string
	EventsDLQTopic      string
	NotifierGroupID     string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	src, err := newSource()
	if err != nil {
		logger.New(logger.Config{Service: serviceName}).Fatal("Failed to load configuration", "error", err)
	}

	cfg := fromSource(src, serviceName)
	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func fromSource(src *source, serviceName string) *Config {
	cfg := &Config{
		MongoURI:          src.str(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: src.str(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  src.duration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port:     src.str(EnvPort, DefaultPort),
		LogLevel: src.str(EnvLogLevel, DefaultLogLevel),

		AdminToken:         src.str(EnvAdminToken, ""),
		CORSAllowedOrigins: src.list(EnvCORSAllowedOrigins, DefaultCORSAllowedOrigins),

		RateLimitRequests: src.num(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   src.duration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout:     src.duration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL:     src.duration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		IdempotencyBackend: src.str(EnvIdempotencyBackend, DefaultIdempotencyBackend),
		MaxRequestSize:     src.num(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     src.duration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    src.duration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     src.duration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: src.duration(EnvShutdownTimeout, DefaultShutdownTimeout),

		LockBackend:          src.str(EnvLockBackend, DefaultLockBackend),
		LockTTL:              src.duration(EnvLockTTL, DefaultLockTTL),
		LockWaitTimeout:      src.duration(EnvLockWaitTimeout, DefaultLockWaitTimeout),
		MaxAdmissionAttempts: src.num(EnvMaxAdmissionAttempts, DefaultMaxAdmissionAttempts),

		RedisAddr:     src.str(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: src.str(EnvRedisPassword, ""),
		RedisDB:       src.num(EnvRedisDB, DefaultRedisDB),

		KafkaEnabled:        src.boolean(EnvKafkaEnabled, DefaultKafkaEnabled),
		ListingsEventsTopic: src.str(EnvListingsEventsTopic, DefaultListingsEventsTopic),
		ReservationsTopic:   src.str(EnvReservationsTopic, DefaultReservationsTopic),
		EventsDLQTopic:      src.str(EnvEventsDLQTopic, DefaultEventsDLQTopic),
		NotifierGroupID:     src.str(EnvNotifierGroupID, DefaultNotifierGroupID),

		Client: client.NewClient(),
	}

	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    logger.JSON,
		AddSource: true,
		Service:   serviceName,
	})
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

// UsesRedis reports whether any configured backend needs a Redis connection.
func (cfg *Config) UsesRedis() bool {
	return cfg.IdempotencyBackend == BackendRedis
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	positive := map[string]time.Duration{
		"MongoConnTimeout": cfg.MongoConnTimeout,
		"RateLimitWindow":  cfg.RateLimitWindow,
		"RequestTimeout":   cfg.RequestTimeout,
		"IdempotencyTTL":   cfg.IdempotencyTTL,
		"ReadTimeout":      cfg.ReadTimeout,
		"WriteTimeout":     cfg.WriteTimeout,
		"IdleTimeout":      cfg.IdleTimeout,
		"ShutdownTimeout":  cfg.ShutdownTimeout,
		"LockTTL":          cfg.LockTTL,
		"LockWaitTimeout":  cfg.LockWaitTimeout,
	}
	names := make([]string, 0, len(positive))
	for name := range positive {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if positive[name] <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", name, positive[name]))
		}
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.MaxAdmissionAttempts <= 0 {
		errors = append(errors, fmt.Sprintf("MaxAdmissionAttempts must be positive, got: %d", cfg.MaxAdmissionAttempts))
	}

	if cfg.IdempotencyBackend != BackendMemory && cfg.IdempotencyBackend != BackendRedis {
		errors = append(errors, fmt.Sprintf("IdempotencyBackend must be one of [memory, redis], got: %s", cfg.IdempotencyBackend))
	}
	if cfg.LockBackend != BackendMongo && cfg.LockBackend != BackendLocal {
		errors = append(errors, fmt.Sprintf("LockBackend must be one of [mongo, local], got: %s", cfg.LockBackend))
	}
	if cfg.UsesRedis() && cfg.RedisAddr == "" {
		errors = append(errors, "RedisAddr cannot be empty when a redis backend is selected")
	}

	if cfg.KafkaEnabled {
		if cfg.ListingsEventsTopic == "" {
			errors = append(errors, "ListingsEventsTopic cannot be empty when Kafka is enabled")
		}
		if cfg.ReservationsTopic == "" {
			errors = append(errors, "ReservationsTopic cannot be empty when Kafka is enabled")
		}
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"admin_token_set", cfg.AdminToken != "",
		"cors_allowed_origins", cfg.CORSAllowedOrigins,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"idempotency_backend", cfg.IdempotencyBackend,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"lock_backend", cfg.LockBackend,
		"lock_ttl", cfg.LockTTL,
		"lock_wait_timeout", cfg.LockWaitTimeout,
		"max_admission_attempts", cfg.MaxAdmissionAttempts,
		"redis_addr", cfg.RedisAddr,
		"kafka_enabled", cfg.KafkaEnabled,
		"listings_events_topic", cfg.ListingsEventsTopic,
		"reservations_topic", cfg.ReservationsTopic,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}
