package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-restaurant-pos/internal/aws"
	"github.com/imrishuroy/go-restaurant-pos/internal/config"
	"github.com/imrishuroy/go-restaurant-pos/internal/database"
	"github.com/imrishuroy/go-restaurant-pos/internal/events"
	"github.com/imrishuroy/go-restaurant-pos/internal/handlers"
	"github.com/imrishuroy/go-restaurant-pos/internal/idempotency"
	"github.com/imrishuroy/go-restaurant-pos/internal/logger"
	"github.com/imrishuroy/go-restaurant-pos/internal/menu"
	"github.com/imrishuroy/go-restaurant-pos/internal/orders"
	"github.com/imrishuroy/go-restaurant-pos/internal/payments"
	"github.com/imrishuroy/go-restaurant-pos/internal/storage"
	"github.com/imrishuroy/go-restaurant-pos/internal/tables"
	"github.com/imrishuroy/go-restaurant-pos/internal/users"
)

// app holds everything the router needs.
type app struct {
	db          *database.DB
	orders      *orders.Service
	menu        *menu.Store
	payments    *payments.Recorder
	tables      *tables.Service
	users       *users.Service
	images      storage.ImageStore
	idempotency handlers.IdempotencyStore
	cfg         *config.Config
	logger      *slog.Logger
}

func setupRouter(a *app) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), handlers.RequestID(), handlers.RequestLogger(a.logger))

	handlers.RegisterHealthRoutes(r, a.db)
	handlers.RegisterOrdersRoutes(r, handlers.OrdersConfig{Service: a.orders, Idempotency: a.idempotency, Logger: a.logger})
	handlers.RegisterMenuRoutes(r, handlers.MenuConfig{Service: a.menu, Images: a.images, Logger: a.logger})
	handlers.RegisterPaymentsRoutes(r, handlers.PaymentsConfig{Service: a.payments, Logger: a.logger})
	handlers.RegisterTablesRoutes(r, handlers.TablesConfig{Service: a.tables, Logger: a.logger})
	handlers.RegisterUsersRoutes(r, handlers.UsersConfig{Service: a.users, Images: a.images, Logger: a.logger})

	if a.cfg.Storage.Backend == "local" {
		r.Static(a.cfg.Storage.PublicPath, a.cfg.Storage.UploadDir)
	}
	return r
}

func main() {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr := logger.New(cfg.Log.Service, cfg.Log.Level)

	// money fields are sent as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()
	a, cleanup, err := build(ctx, cfg, logr)
	if err != nil {
		logr.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	r := setupRouter(a)

	if cfg.Server.RunLocal {
		if err := serve(r, cfg.Server.Addr, logr); err != nil {
			logr.Error("server stopped", "error", err)
			os.Exit(1)
		}
		return
	}

	adapter := ginadapter.New(r)
	lambda.Start(func(ctx context.Context, req lambdaevents.APIGatewayProxyRequest) (lambdaevents.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}

func build(ctx context.Context, cfg *config.Config, logr *slog.Logger) (*app, func(), error) {
	db, err := database.Connect(ctx, cfg, logr)
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){db.Close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Database.MigrateOnStart {
		if err := db.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	var clients *aws.AWSClients
	if needsAWS(cfg) {
		if clients, err = aws.NewAWSClients(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	var publisher events.Publisher = events.Noop{}
	switch cfg.Events.Backend {
	case "sqs":
		publisher = aws.NewPublisher(clients.SQS, cfg.Events.QueueURL)
	case "amqp":
		p, err := events.DialAMQP(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, p.Close)
		publisher = p
	}

	menuStore := menu.NewStore(db)

	orderOpts := []orders.Option{orders.WithPublisher(publisher)}
	var paymentMetrics payments.Metrics
	if cfg.Metrics.Namespace != "" {
		m := aws.NewMetrics(clients.CloudWatch, cfg.Metrics.Namespace)
		orderOpts = append(orderOpts, orders.WithMetrics(m))
		paymentMetrics = m
	}
	if cfg.Orders.VerifyMenuItems {
		orderOpts = append(orderOpts, orders.WithCatalog(menuStore))
	}

	var images storage.ImageStore
	if cfg.Storage.Backend == "s3" {
		images = storage.NewS3(clients.S3, cfg.Storage.Bucket, cfg.Storage.BaseURL)
	} else {
		local, err := storage.NewLocal(cfg.Storage.UploadDir, cfg.Storage.PublicPath)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		images = local
	}

	if cfg.Auth.JWTSecret == "" {
		logr.Warn("JWT_SECRET is not set, tokens are signed with an empty key")
	}

	a := &app{
		db:       db,
		orders:   orders.NewService(orders.NewStore(db), logr, orderOpts...),
		menu:     menuStore,
		payments: payments.NewRecorder(payments.NewStore(db), publisher, paymentMetrics, logr),
		tables:   tables.NewService(tables.NewStore(db), logr),
		users:    users.NewService(users.NewStore(db), users.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), logr),
		images:   images,
		cfg:      cfg,
		logger:   logr,
	}
	if cfg.Idempotency.Table != "" {
		a.idempotency = idempotency.NewStore(clients.DynamoDB, cfg.Idempotency.Table, cfg.Idempotency.TTLWindow)
	}
	return a, cleanup, nil
}

func needsAWS(cfg *config.Config) bool {
	return cfg.Events.Backend == "sqs" ||
		cfg.Storage.Backend == "s3" ||
		cfg.Idempotency.Table != "" ||
		cfg.Metrics.Namespace != ""
}

// serve runs a plain HTTP server until SIGINT or SIGTERM.
func serve(r http.Handler, addr string, logr *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("running local server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
