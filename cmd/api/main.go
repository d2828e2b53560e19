package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/stock-ledger/docs"
	appanalytics "github.com/jhoicas/stock-ledger/internal/application/analytics"
	"github.com/jhoicas/stock-ledger/internal/application/auth"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/report"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/notify"
	infrapdf "github.com/jhoicas/stock-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// @title                       Stock Ledger API
// @version                     1.0
// @description                 Libro mayor de movimientos de stock: entradas, salidas, saldos derivados y alertas.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization

// storage repositorios del driver elegido (postgres o memoria).
type storage struct {
	products   repository.ProductRepository
	movements  repository.MovementRepository
	categories repository.CategoryRepository
	suppliers  repository.SupplierRepository
	users      repository.UserRepository
	txRunner   inventory.TxRunner
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.DB.Driver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es requerido")
	}

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.close()

	// Alertas de stock bajo: observador post-commit → despachador asíncrono → log
	alertLog := log.Component("alerts")
	dispatcher := notify.NewDispatcher(alertLog, cfg.Alerts.QueueSize, notify.NewLogSink(alertLog))

	balanceUC := inventory.NewBalanceUseCase(store.products, store.movements)
	observer := inventory.NewLowStockObserver(balanceUC, dispatcher)
	registerMovementUC := inventory.NewRegisterMovementUseCase(
		store.txRunner, observer, log.Component("ledger"), cfg.Ledger.MaxRetries,
	)
	movementQueryUC := inventory.NewMovementQueryUseCase(store.movements, cfg.Ledger.PageSize)
	replenishmentUC := inventory.NewReplenishmentUseCase(store.products)
	dashboardUC := appanalytics.NewDashboardUseCase(store.products, store.suppliers, store.movements, cfg.Alerts.RecentWindowDays)
	stockReportUC := report.NewStockReportUseCase(balanceUC, infrapdf.NewMarotoPDFGenerator(), cfg.App.Name)

	authUC := auth.NewAuthUseCase(store.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:           authUC,
		UserUC:           usecase.NewUserUseCase(store.users),
		CategoryUC:       usecase.NewCategoryUseCase(store.categories),
		SupplierUC:       usecase.NewSupplierUseCase(store.suppliers),
		ProductUC:        usecase.NewProductUseCase(store.products, store.categories, store.suppliers),
		Balances:         balanceUC,
		RegisterMovement: registerMovementUC,
		MovementQuery:    movementQueryUC,
		Replenishment:    replenishmentUC,
		DashboardUC:      dashboardUC,
		StockReport:      stockReportUC,
		JWTSecret:        cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	// Las alertas pendientes se entregan antes de cerrar el almacenamiento.
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("cola de alertas sin drenar")
	}
	if n := dispatcher.Dropped(); n > 0 {
		log.Warn().Int64("dropped", n).Msg("alertas descartadas por cola llena")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.DB.Driver == config.StoreDriverMemory {
		log.Warn().Msg("STORE_DRIVER=memory: los datos se pierden al reiniciar")
		s := memory.NewStore(cfg.Ledger.LockTimeout)
		return &storage{
			products:   memory.NewProductRepository(s),
			movements:  memory.NewMovementRepository(s),
			categories: memory.NewCategoryRepository(s),
			suppliers:  memory.NewSupplierRepository(s),
			users:      memory.NewUserRepository(s),
			txRunner:   memory.NewTxRunner(s),
			close:      func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB, cfg.App.Name)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("esquema aplicado")
	}
	return &storage{
		products:   postgres.NewProductRepository(pool),
		movements:  postgres.NewMovementRepository(pool).WithSettleWindow(cfg.Ledger.HistorySettle),
		categories: postgres.NewCategoryRepository(pool),
		suppliers:  postgres.NewSupplierRepository(pool),
		users:      postgres.NewUserRepository(pool),
		txRunner:   postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout),
		close:      pool.Close,
	}, nil
}
