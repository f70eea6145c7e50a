package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	"storefront/internal/infra/events"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/infra/storage"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	"storefront/internal/server"
	"storefront/internal/usecase"
	auth "storefront/internal/usecase/auth_usecase"
)

var migrateOnStart bool

// storefront serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", true, "run auto migration before starting")
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	log := logger.New(cfg)

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return errors.Wrap(err, "db: get sql.DB")
	}
	defer sqlDB.Close()

	if migrateOnStart {
		if err := db.Migrate(gormDB); err != nil {
			return err
		}
	}

	m := metrics.New()

	//Redis（未設定ならキャッシュなし）
	redisClient, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	productCache := cache.NewProductCache(redisClient, cfg.ProductCacheTTL, log)
	productCache.OnHit = m.CacheHits.Inc
	productCache.OnMiss = m.CacheMisses.Inc

	//Kafka（未設定ならNop）
	publisher, err := events.NewPublisher(cfg.KafkaBrokers, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	disk, err := storage.New(ctx, cfg)
	if err != nil {
		return err
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//bcrypt / JWT
	hasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	verifier := auth.NewBcryptPasswordVerifier()
	issuer := auth.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	clock := auth.SystemClock{}

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, issuer, clock)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, issuer, clock)
	productUC := usecase.NewProductUsecase(txm, productRepo, productCache, disk, cfg.MaxUploadBytes, log)
	orderUC := usecase.NewOrderUsecase(txm, productCache, publisher, m, log)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, publisher, m, log)
	userUC := usecase.NewUserUsecase(txm, userRepo)
	feedbackUC := usecase.NewFeedbackUsecase(txm)
	auditUC := usecase.NewAuditUsecase(auditRepo)

	//Handler生成
	handlers := server.Handlers{
		Auth:         handler.NewAuthHandler(registerUC, loginUC),
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		Feedback:     handler.NewFeedbackHandler(feedbackUC),
		Order:        handler.NewOrderHandler(orderUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
		User:         handler.NewUserHandler(userUC),
		Audit:        handler.NewAuditHandler(auditUC),
	}

	e := server.New(cfg, log, m)
	server.RegisterRoutes(e, handlers, server.NewGuards(issuer, userRepo), sqlDB, m)
	if cfg.StorageDisk == "local" {
		server.RegisterStatic(e, cfg.StoragePublicURL, cfg.StorageLocalRoot)
	}

	//Server起動
	return server.Run(ctx, e, cfg.Addr(), log)
}
