package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/Lahiru-360/fixed-asset-registry-final/api/swagger" // swagger docs
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/cache"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/config"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/database"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/document"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/handler"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/logger"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/mailer"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/middleware"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/repository"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/service"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/storage"
	"github.com/Lahiru-360/fixed-asset-registry-final/internal/websocket"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Fixed Asset Registry API
// @version         1.0
// @description     Asset requests, procurement, registration and depreciation reporting.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load("configs/.env", ".env")
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Logger setup failed: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.Database.DSN(), zlog)
	if err != nil {
		return err
	}
	if cfg.Server.AutoMigrate {
		if err := database.Migrate(db, zlog); err != nil {
			return err
		}
	}

	store, err := storage.New(cfg.Storage, zlog)
	if err != nil {
		return err
	}
	reports, closeCache, err := cache.New(ctx, cfg.Redis, zlog)
	if err != nil {
		return err
	}
	defer func() { _ = closeCache() }()

	mail := mailer.New(cfg.Mail, cfg.Company, zlog)
	docs := document.NewGenerator(cfg.Company)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(zlog)
	go wsHub.Run()
	defer wsHub.Stop()

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	requestRepo := repository.NewAssetRequestRepository(db)
	quotationRepo := repository.NewQuotationRepository(db)
	poRepo := repository.NewPurchaseOrderRepository(db)
	grnRepo := repository.NewGRNRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	sequences := repository.NewSequenceGenerator(db)
	txManager := repository.NewTransactionManager(db)

	secret := []byte(cfg.Auth.JWTSecret)
	auth := middleware.NewAuth(secret, roleRepo)

	userService := service.NewUserService(userRepo, roleRepo, secret, cfg.Auth.TokenTTL, zlog)
	auditService := service.NewAuditService(auditRepo)
	requestService := service.NewAssetRequestService(requestRepo, auditRepo, txManager, wsHub, zlog)
	quotationService := service.NewQuotationService(requestRepo, quotationRepo, auditRepo, txManager, store, wsHub, zlog)
	poService := service.NewPurchaseOrderService(service.PurchaseOrderDeps{
		RequestRepo:   requestRepo,
		QuotationRepo: quotationRepo,
		PORepo:        poRepo,
		GRNRepo:       grnRepo,
		AuditRepo:     auditRepo,
		Sequences:     sequences,
		TxManager:     txManager,
		Renderer:      docs,
		Store:         store,
		Mailer:        mail,
		Publisher:     wsHub,
		Logger:        zlog,
	})
	assetService := service.NewAssetService(service.AssetDeps{
		RequestRepo:  requestRepo,
		PORepo:       poRepo,
		GRNRepo:      grnRepo,
		AssetRepo:    assetRepo,
		CategoryRepo: categoryRepo,
		AuditRepo:    auditRepo,
		Sequences:    sequences,
		TxManager:    txManager,
		Reports:      reports,
		Publisher:    wsHub,
		Logger:       zlog,
	})
	categoryService := service.NewCategoryService(categoryRepo, assetRepo, auditRepo, txManager, reports, zlog)
	reportService := service.NewReportService(assetRepo, docs, docs, reports, zlog)

	secureCookies := cfg.Server.Mode == config.ReleaseMode
	handlers := []interface{ RegisterRoutes(*gin.RouterGroup) }{
		handler.NewUserHandler(userService, auth, cfg.Auth.TokenTTL, secureCookies),
		handler.NewAuditHandler(auditService, auth),
		handler.NewAssetRequestHandler(requestService, auth),
		handler.NewQuotationHandler(quotationService, auth),
		handler.NewPurchaseOrderHandler(poService, auth),
		handler.NewAssetHandler(assetService, auth),
		handler.NewCategoryHandler(categoryService, auth),
		handler.NewReportHandler(reportService, auth),
	}

	// Set up Gin Router
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(zlog))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, auth.Secret())
	})

	for _, h := range handlers {
		h.RegisterRoutes(router.Group(""))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
