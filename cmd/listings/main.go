package main

import (
	"pisos/internal/listings/events"
	"pisos/internal/listings/handler"
	"pisos/internal/listings/locker"
	"pisos/internal/listings/repository"
	"pisos/internal/listings/service"
	"pisos/internal/listings/validator"
	"pisos/pkg/app"
	"pisos/pkg/config"
	"pisos/pkg/kafka"
	kafka_config "pisos/pkg/kafka/config"
	kafka_middleware "pisos/pkg/kafka/middleware"
)

const ServiceName = "listings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	if cfg.UsesRedis() {
		cfg.SetRedis()
	}

	application := app.NewApplication()

	listingService := service.NewListingService(
		repository.NewMongoListingRepository(cfg),
		newLocker(cfg),
		validator.NewListingValidator(cfg.Log),
		newPublisher(cfg, application),
		cfg,
	)
	cfg.Log.Info("Listing service initialized", "lock_backend", cfg.LockBackend)

	application.SetApp(cfg,
		handler.NewListingHandler(listingService, cfg.Log),
		handler.NewAdminHandler(listingService, cfg.Log),
	)
	application.Run()
}

func newLocker(cfg *config.Config) locker.Locker {
	if cfg.LockBackend == config.BackendLocal {
		cfg.Log.Warn("Using in-process listing locks, only safe for a single instance")
		return locker.NewLocalLocker(cfg.LockWaitTimeout)
	}
	return locker.NewMongoLocker(cfg)
}

func newPublisher(cfg *config.Config, application *app.Application) events.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, events will not be published")
		return events.NewNoopPublisher()
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	cfg.Log.Info("Kafka configuration loaded", kafkaCfg.LogValues()...)

	listingsProducer := newProducer(cfg, kafkaCfg, cfg.ListingsEventsTopic)
	reservationsProducer := newProducer(cfg, kafkaCfg, cfg.ReservationsTopic)
	application.AddCloser(listingsProducer)
	application.AddCloser(reservationsProducer)

	return events.NewKafkaPublisher(listingsProducer, reservationsProducer)
}

func newProducer(cfg *config.Config, kafkaCfg *kafka_config.Config, topic string) *kafka.Producer {
	producer, err := kafka.NewProducer(kafkaCfg, topic, cfg.EventsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "topic", topic, "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	return producer
}
