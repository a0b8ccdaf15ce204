package main

import (
	"context"
	"database/sql"
	"errors"
	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"net/http"
	"order-intake-service/internal/api"
	"order-intake-service/internal/catalog"
	"order-intake-service/internal/config"
	"order-intake-service/internal/consumer"
	"order-intake-service/internal/document"
	"order-intake-service/internal/entity"
	"order-intake-service/internal/metrics"
	"order-intake-service/internal/notifier"
	"order-intake-service/internal/repository"
	"order-intake-service/internal/service"
	"order-intake-service/internal/session"
	"order-intake-service/internal/sharding"
	"order-intake-service/migrations"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func connectDB(dsn string) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", dsn)
		if err == nil {
			err = db.Ping()
			if err == nil {
				return db, nil
			}
		}
		log.Warn().Err(err).Msgf("Retry %d: failed to connect to DB", i+1)
		time.Sleep(3 * time.Second)
	}
	return nil, err
}

func connectDBs(dsns []string) ([]*sql.DB, error) {
	var dbs []*sql.DB
	for _, dsn := range dsns {
		db, err := connectDB(dsn)
		if err != nil {
			return nil, err
		}
		dbs = append(dbs, db)
	}
	return dbs, nil
}

func loadCatalog(ctx context.Context, cfg config.CatalogConfig, dbs []*sql.DB) (*catalog.Catalog, error) {
	if cfg.Source == "mysql" {
		repo := repository.NewCatalogRepository(dbs[0])
		products, err := repo.GetProducts(ctx)
		if err != nil {
			return nil, &catalog.LoadError{Source: "mysql", Err: err}
		}
		if len(products) == 0 && cfg.Path != "" {
			products, err = seedProducts(ctx, repo, cfg)
			if err != nil {
				return nil, &catalog.LoadError{Source: "mysql", Err: err}
			}
		}
		c, err := catalog.New(products)
		if err != nil {
			return nil, &catalog.LoadError{Source: "mysql", Err: err}
		}
		return c, nil
	}

	schema, err := catalog.ParseSchema(cfg.Schema)
	if err != nil {
		return nil, &catalog.LoadError{Source: cfg.Path, Err: err}
	}
	return catalog.LoadXLSX(cfg.Path, schema)
}

// seedProducts fills an empty products table from the spreadsheet.
func seedProducts(ctx context.Context, repo *repository.CatalogRepository, cfg config.CatalogConfig) ([]entity.Product, error) {
	schema, err := catalog.ParseSchema(cfg.Schema)
	if err != nil {
		return nil, err
	}
	c, err := catalog.LoadXLSX(cfg.Path, schema)
	if err != nil {
		return nil, err
	}

	products := c.Products()
	for i := range products {
		if err := repo.CreateProduct(ctx, &products[i]); err != nil {
			return nil, err
		}
	}
	log.Info().Msgf("Seeded %d products from %s", len(products), cfg.Path)
	return products, nil
}

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var dbs []*sql.DB
	if cfg.Catalog.Source == "mysql" || cfg.OrderLog.Backend == "mysql" {
		dbs, err = connectDBs(cfg.MySQL.DSNs)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to MySQL")
		}
		if err := migrations.AutoMigrateProducts(cfg.MySQL.Retries, dbs[0]); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate products table")
		}
		if err := migrations.AutoMigrateOrderLog(cfg.MySQL.Retries, dbs...); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate order_log table")
		}
	}

	productCatalog, err := loadCatalog(ctx, cfg.Catalog, dbs)
	if err != nil {
		log.Fatal().Err(err).Msg("Catalog unavailable, no orders can be taken")
	}
	log.Info().Msgf("Loaded %d products", productCatalog.Len())

	scheme, err := service.ParsePricingScheme(cfg.Catalog.Pricing)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid pricing scheme")
	}
	layout, err := document.ParseLayout(cfg.Document.Layout)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid document layout")
	}

	var logo *document.Logo
	if cfg.Document.Logo != "" {
		logo, err = document.LoadLogo(ctx, cfg.Document.Logo, cfg.Document.LogoTimeout)
		if err != nil {
			log.Warn().Err(err).Msgf("Logo %s unavailable, documents will have no logo", cfg.Document.Logo)
		}
	}

	var orderLog repository.OrderLog
	if cfg.OrderLog.Backend == "mysql" {
		orderLog = repository.NewMySQLOrderLog(dbs, sharding.NewShardRouter(len(dbs)))
	} else {
		orderLog = repository.NewExcelOrderLog(cfg.OrderLog.Path)
	}

	var sessions session.Store = session.NewMemoryStore()
	var idempotency session.IdempotencyGuard = session.NewMemoryIdempotency(cfg.Redis.KeyTTL)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
		})
		sessions = session.NewRedisStore(rdb, cfg.Redis.SessionTTL)
		idempotency = session.NewRedisIdempotency(rdb, cfg.Redis.KeyTTL)
	}

	documents := document.NewFileStore(cfg.Document.OutputDir)
	deps := service.Dependencies{
		Catalog:   productCatalog,
		Pricing:   service.NewPricingEngine(scheme),
		Sessions:  sessions,
		OrderLog:  orderLog,
		Renderer:  document.NewRenderer(layout, logo),
		Documents: documents,
		Notifier: notifier.NewSMTPNotifier(notifier.Config{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			Operator: cfg.Mail.Operator,
			Subject:  cfg.Mail.Subject,
			ShopName: cfg.Mail.ShopName,
			Timeout:  cfg.Mail.Timeout,
		}),
		Metrics:           metrics.NewSubmissionMetrics(prometheus.DefaultRegisterer),
		Idempotency:       idempotency,
		NotifyTimeout:     cfg.Mail.Timeout,
		MaxNotifyAttempts: cfg.Notify.MaxAttempts,
		RetryBackoff:      cfg.Notify.RetryBackoff,
	}
	if len(cfg.Kafka.Brokers) > 0 {
		eventWriter := config.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.EventTopic)
		retryWriter := config.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.RetryTopic)
		defer eventWriter.Close()
		defer retryWriter.Close()
		deps.EventWriter = eventWriter
		deps.RetryWriter = retryWriter
	}
	orderService := service.NewOrderService(deps)

	if len(cfg.Kafka.Brokers) > 0 {
		reader := config.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.RetryTopic, cfg.Kafka.GroupID)
		go consumer.NewConsumer(orderService, reader).StartKafkaConsumer(ctx)
	}

	e := api.NewServer(
		api.NewOrderHandler(orderService, documents),
		api.NewCatalogHandler(productCatalog),
		api.RateLimit{Rate: cfg.HTTP.RateLimit, Burst: cfg.HTTP.RateBurst},
	)

	go func() {
		if err := e.Start(":" + cfg.HTTP.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down server")
	}
}
