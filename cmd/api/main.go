package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/storefront-golang/internal/addresses"
	"github.com/01moynul/storefront-golang/internal/auth"
	"github.com/01moynul/storefront-golang/internal/cache"
	"github.com/01moynul/storefront-golang/internal/cart"
	"github.com/01moynul/storefront-golang/internal/catalog"
	"github.com/01moynul/storefront-golang/internal/checkout"
	"github.com/01moynul/storefront-golang/internal/config"
	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/01moynul/storefront-golang/internal/handlers"
	"github.com/01moynul/storefront-golang/internal/inventory"
	"github.com/01moynul/storefront-golang/internal/logging"
	"github.com/01moynul/storefront-golang/internal/notify"
	"github.com/01moynul/storefront-golang/internal/orders"
	"github.com/01moynul/storefront-golang/internal/outbox"
	"github.com/01moynul/storefront-golang/internal/routes"
	"github.com/01moynul/storefront-golang/internal/shipping"
	"github.com/01moynul/storefront-golang/internal/users"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 0. --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.LogPretty)
	if !cfg.LogPretty {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("storefront api stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. --- Database Connection & Schema ---
	db, err := database.OpenDB(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
		return err
	}

	// 2. --- Cache (Redis, or in-process) ---
	var store cache.Cache
	if cfg.RedisAddr != "" {
		store = cache.NewRedis(cfg.RedisAddr, cfg.CachePrefix)
		if err := cache.Ping(ctx, store); err != nil {
			return err
		}
	} else {
		store = cache.NewMemory(10000, 24*time.Hour, cfg.CachePrefix)
		log.Warn().Msg("REDIS_ADDR not set; using in-process cache")
	}

	// 3. --- Notifications ---
	var mailer notify.Mailer = notify.LogMailer{Logger: log.With().Str("component", "mailer").Logger()}
	if cfg.SMTPAddr != "" {
		mailer = &notify.SMTPMailer{
			Addr:     cfg.SMTPAddr,
			From:     cfg.MailFrom,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		}
	}
	dispatcher := &notify.Dispatcher{
		Mailer:        mailer,
		OperatorEmail: cfg.OperatorEmail,
		Logger:        log.With().Str("component", "notify").Logger(),
	}
	if len(cfg.KafkaBrokers) > 0 {
		writer := notify.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer writer.Close()
		dispatcher.Publisher = notify.NewKafkaPublisher(writer)
	}

	// 4. --- Services ---
	ledger := inventory.Ledger{}
	pricing := shipping.Pricing{}
	userStore := &users.Store{DB: db}
	workflow := &checkout.Workflow{
		DB:              db,
		Stock:           ledger,
		Shipping:        pricing,
		Notifier:        dispatcher,
		Logger:          log.With().Str("component", "checkout").Logger(),
		DispatchAsync:   cfg.AsyncDispatch,
		DispatchTimeout: 30 * time.Second,
	}
	defer workflow.Wait()

	app := &handlers.Handlers{
		DB:     db,
		Logger: log,

		Users:  userStore,
		Tokens: auth.NewManager(cfg.JWTSecret, cfg.JWTTTL),
		Zones: &shipping.CachedZones{
			ZoneStore: &shipping.ZoneStore{DB: db},
			Cache:     store,
			Logger:    log.With().Str("component", "zones").Logger(),
		},
		Shipping:   pricing,
		Addresses:  &addresses.Store{DB: db},
		Cart:       &cart.Store{DB: db},
		Checkout:   workflow,
		Orders:     &orders.Store{DB: db},
		Products:   &catalog.Products{DB: db, Stock: ledger},
		Taxonomy:   &catalog.Taxonomy{DB: db},
		Reviews:    &catalog.Reviews{DB: db},
		Newsletter: &catalog.Newsletter{DB: db},
	}

	// 5. --- Router Setup ---
	router := routes.SetupRouter(app, routes.Options{
		Logger:         log.With().Str("component", "http").Logger(),
		CORSOrigin:     cfg.CORSOrigin,
		RateLimit:      cfg.RateLimit,
		RateBurst:      cfg.RateBurst,
		Cache:          store,
		IdempotencyTTL: 24 * time.Hour,
		Roles:          userStore,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	relay := &outbox.Relay{
		DB:       db,
		Notifier: dispatcher,
		Logger:   log.With().Str("component", "outbox").Logger(),
		Interval: cfg.OutboxInterval,
		Grace:    time.Minute,
	}

	// 6. --- Run Server & Relay Until Signalled ---
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("starting storefront api server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return relay.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
