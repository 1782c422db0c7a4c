package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"rentwheels/internal/app/commands"
	"rentwheels/internal/app/handlers/bookingflow"
	"rentwheels/internal/app/handlers/couponapp"
	"rentwheels/internal/app/handlers/lockapp"
	"rentwheels/internal/app/handlers/orderapp"
	"rentwheels/internal/app/handlers/quoteapp"
	"rentwheels/internal/app/middleware"
	appoutbox "rentwheels/internal/app/outbox"
	"rentwheels/internal/app/policies"
	"rentwheels/internal/app/queries"
	"rentwheels/internal/app/uow"
	domainpricing "rentwheels/internal/domain/pricing"
	"rentwheels/internal/infra/broker/kafka"
	"rentwheels/internal/infra/config"
	mongodb "rentwheels/internal/infra/db/mongo"
	"rentwheels/internal/infra/gateway/razorpay"
	ginserver "rentwheels/internal/infra/http/gin"
	"rentwheels/internal/infra/notify"
	"rentwheels/internal/infra/obs"
	infraoutbox "rentwheels/internal/infra/outbox"
	"rentwheels/internal/infra/security"
	"rentwheels/internal/infra/storage/memory"
	"rentwheels/internal/infra/sweep"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	logger := obs.NewLogger(cfg.Env)
	if err != nil {
		logger = obs.NewLogger("dev")
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	for _, run := range app.workers {
		run := run
		go func() {
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("background worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "store", cfg.StoreMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	app.close()
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	workers  []func(context.Context) error
	ready    func() error
	close    func()
}

func buildApplication(cfg config.Config, logger *slog.Logger) (application, error) {
	app := application{
		ready: func() error { return nil },
		close: func() {},
	}

	var (
		uowFactory uow.UoWFactory
		outboxImpl appoutbox.Outbox
		idStore    middleware.IdempotencyStore
	)

	switch cfg.StoreMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, err
		}
		store := infraoutbox.NewStore(client.DB)
		uowFactory = mongodb.Factory{
			DB:           client.DB,
			VehicleRepo:  mongodb.NewVehicleRepository(client.DB),
			LockRepo:     mongodb.NewLockRepository(client.DB),
			BookingRepo:  mongodb.NewBookingRepository(client.DB),
			CouponRepo:   mongodb.NewCouponRepository(client.DB),
			CustomerRepo: mongodb.NewCustomerRepository(client.DB),
		}
		outboxImpl = store
		idStore = mongodb.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
		app.ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return application{}, err
			}
			worker := &infraoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Source:      "app://rentwheels",
				Backoff:     cfg.RetryBackoff,
			}
			app.workers = append(app.workers, worker.Run)
			app.close = func() { _ = producer.Close() }
		} else {
			logger.Warn("no kafka brokers configured, outbox events will accumulate")
		}
	default:
		memFactory := memory.NewFactory()
		uowFactory = memFactory
		outboxImpl = memory.NewOutbox()
		idStore = memory.NewIdempotencyStore()
	}

	gateway := razorpay.New(cfg.GatewayKeyID, cfg.GatewayKeySecret, cfg.GatewayTimeout)
	if cfg.GatewayBaseURL != "" {
		gateway.BaseURL = cfg.GatewayBaseURL
	}
	var notifier policies.Notifier
	if cfg.NotifyWebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.NotifyWebhookURL, cfg.NotifyTimeout)
	}

	calculator := domainpricing.Calculator{Tiers: domainpricing.DefaultTierTable()}
	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, lockapp.AcquireLockCommand{}.Key(), &lockapp.AcquireLockHandler{
		UoWFactory: uowFactory, Outbox: outboxImpl, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, lockapp.ExtendLockCommand{}.Key(), &lockapp.ExtendLockHandler{
		UoWFactory: uowFactory, Outbox: outboxImpl, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, lockapp.ReleaseLockCommand{}.Key(), &lockapp.ReleaseLockHandler{
		UoWFactory: uowFactory, Outbox: outboxImpl, Encoder: encoder,
	})
	commands.RegisterHandler(commandBus, orderapp.CreateOrderCommand{}.Key(), &orderapp.CreateOrderHandler{
		UoWFactory:   uowFactory,
		Gateway:      gateway,
		Calculator:   calculator,
		GatewayKeyID: cfg.GatewayKeyID,
	})
	commands.RegisterHandler(commandBus, bookingflow.CompleteBookingCommand{}.Key(), &bookingflow.CompleteBookingHandler{
		UoWFactory: uowFactory,
		Gateway:    gateway,
		Calculator: calculator,
		Outbox:     outboxImpl,
		Encoder:    encoder,
		Notifier:   notifier,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, bookingflow.CancelBookingCommand{}.Key(), &bookingflow.CancelBookingHandler{
		UoWFactory: uowFactory, Outbox: outboxImpl, Encoder: encoder,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, quoteapp.GetQuoteQuery{}.Key(), &quoteapp.GetQuoteHandler{
		UoWFactory: uowFactory, Calculator: calculator,
	})
	queries.RegisterHandler(queryBus, couponapp.ValidateCouponQuery{}.Key(), &couponapp.ValidateCouponHandler{
		UoWFactory: uowFactory,
	})
	queries.RegisterHandler(queryBus, bookingflow.ListBookingsQuery{}.Key(), &bookingflow.ListBookingsHandler{
		UoWFactory: uowFactory,
	})
	queries.RegisterHandler(queryBus, bookingflow.GetBookingQuery{}.Key(), &bookingflow.GetBookingHandler{
		UoWFactory: uowFactory,
	})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxImpl),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	sweeper := &sweep.Sweeper{
		UoWFactory: uowFactory,
		Outbox:     outboxImpl,
		Encoder:    encoder,
		Interval:   cfg.LockSweepInterval,
		Logger:     logger,
	}
	app.workers = append(app.workers, sweeper.Run)

	auth := ginserver.AuthMiddleware{
		Verifier: security.TokenVerifier{Secret: []byte(cfg.JWTSecret)},
		Logger:   logger,
	}
	app.handlers = ginserver.Handlers{
		Quote:          ginserver.QuoteHandler{Queries: queryBusWithMiddleware},
		Lock:           ginserver.LockHandler{Commands: commandBusWithMiddleware},
		Order:          ginserver.OrderHandler{Commands: commandBusWithMiddleware},
		Booking:        ginserver.BookingHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware},
		Coupon:         ginserver.CouponHandler{Queries: queryBusWithMiddleware},
		AuthMiddleware: auth.Handle,
	}
	return app, nil
}
