package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autobid/internal/auth"
	bidding "autobid/internal/biddingService"
	"autobid/internal/config"
	"autobid/internal/locker"
	"autobid/internal/metrics"
	"autobid/internal/models"
	"autobid/internal/notify"
	"autobid/internal/repository"
	"autobid/internal/server"
	"autobid/internal/vehicle"
	"autobid/internal/wallet"
	"autobid/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Fatal("failed to load configuration", map[string]any{"error": err.Error()})
	}
	utils.SetLevel(cfg.LogLevel)
	utils.Info("configuration loaded", cfg.Fields())
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	store, err := openStore(cfg)
	if err != nil {
		utils.Fatal("failed to open store", map[string]any{"error": err.Error()})
	}

	hub := notify.NewHub(cfg.CORSOrigins, m)
	defer hub.Close()

	sink, relay, closeSinks := buildSinks(cfg, hub)
	defer closeSinks()

	locks := locker.New()
	ledger := wallet.NewLedger(store, locks, m)
	biddingSvc := bidding.NewBiddingService(store, ledger, locks, sink, bidding.WithMetrics(m))
	vehicleSvc := vehicle.NewService(store)
	authSvc := auth.NewService(store, ledger, locks, auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry))

	if cfg.SeedDemo {
		if err := seedDemo(ctx, authSvc, vehicleSvc); err != nil {
			utils.Warn("demo data not seeded", map[string]any{"error": err.Error()})
		}
	}

	router := server.SetupRouter(server.Dependencies{
		Auth:     authSvc,
		Bidding:  biddingSvc,
		Wallet:   ledger,
		Vehicles: vehicleSvc,
		Hub:      hub,
		Metrics:  m,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		utils.Info("starting auction server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if relay != nil {
		g.Go(func() error {
			if err := relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		utils.Info("shutting down auction server", nil)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		utils.Fatal("server stopped with error", map[string]any{"error": err.Error()})
	}
	utils.Info("server stopped", nil)
}

// openStore returns the Postgres store when DATABASE_URL is set, otherwise an in-memory store
func openStore(cfg *config.Config) (repository.Store, error) {
	if cfg.DatabaseURL == "" {
		utils.Warn("DATABASE_URL not set, using in-memory store", nil)
		return repository.NewMemoryRepo(), nil
	}

	db, err := repository.OpenPostgres(cfg.DatabaseURL, cfg.Env)
	if err != nil {
		return nil, err
	}
	store := repository.NewGormStore(db)
	if err := store.Migrate(); err != nil {
		return nil, err
	}
	utils.Info("connected to postgres", nil)
	return store, nil
}

// buildSinks wires the notification fan-out. With redis every instance publishes to redis and
// relays redis messages to its own websocket clients; without it events go straight to the hub.
func buildSinks(cfg *config.Config, hub *notify.Hub) (notify.Sink, *notify.RedisRelay, func()) {
	var (
		sinks   notify.Multi
		relay   *notify.RedisRelay
		closers []func()
	)

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			utils.Fatal("invalid REDIS_URL", map[string]any{"error": err.Error()})
		}
		client := redis.NewClient(opts)
		closers = append(closers, func() { client.Close() })
		sinks = append(sinks, notify.NewRedisSink(client))
		relay = notify.NewRedisRelay(client, hub)
	} else {
		sinks = append(sinks, hub)
	}

	if cfg.AMQPURL != "" {
		amqpSink, closeAMQP, err := notify.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			utils.Error("amqp unavailable, auction events will not be published to the broker", map[string]any{"error": err.Error()})
		} else {
			closers = append(closers, closeAMQP)
			sinks = append(sinks, amqpSink)
		}
	}

	return sinks, relay, func() {
		for _, c := range closers {
			c()
		}
	}
}

// seedDemo adds two users and a couple of listings for local runs
func seedDemo(ctx context.Context, authSvc *auth.Service, vehicleSvc *vehicle.Service) error {
	seller, err := authSvc.Signup(ctx, auth.SignupInput{Email: "seller@autobid.local", Password: "password123", DisplayName: "Demo Seller"})
	if err != nil {
		return err
	}
	if _, err := authSvc.Signup(ctx, auth.SignupInput{Email: "buyer@autobid.local", Password: "password123", DisplayName: "Demo Buyer"}); err != nil {
		return err
	}

	listings := []vehicle.CreateInput{
		{
			Title: "Toyota Aqua 2018", Category: models.CategoryCar, NearestCity: "Colombo",
			Description: "Hybrid hatchback, single owner, full service history",
			BasePrice:   100000, BiddingType: models.BiddingUpward, BiddingDuration: 7,
		},
		{
			Title: "Honda CB Hornet 160R", Category: models.CategoryBike, NearestCity: "Kandy",
			Description: "Well kept commuter bike with new tyres and battery",
			BasePrice:   40000, BiddingType: models.BiddingDownward, BiddingDuration: 3,
		},
	}
	for _, in := range listings {
		if _, err := vehicleSvc.Create(ctx, seller.User.ID, in); err != nil {
			return err
		}
	}

	utils.Info("demo data seeded", map[string]any{"users": 2, "vehicles": len(listings)})
	return nil
}
