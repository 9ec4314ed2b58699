package routes

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"fieldservice-admin/internal/controllers"
	"fieldservice-admin/internal/listing"
	"fieldservice-admin/internal/repositories"
	"fieldservice-admin/internal/services"
	"fieldservice-admin/internal/workflow"
	"fieldservice-admin/pkg/config"
	"fieldservice-admin/pkg/eventbus"
	applogger "fieldservice-admin/pkg/logger"
	"fieldservice-admin/pkg/middleware"
	"fieldservice-admin/pkg/restclient"
	"fieldservice-admin/pkg/service"
	"fieldservice-admin/pkg/websocket"
)

// Dependencies — внешние ресурсы, которые поднимает main.
type Dependencies struct {
	Pool     *pgxpool.Pool
	Cache    repositories.CacheRepositoryInterface
	Upstream *restclient.Client
	Hub      *websocket.Hub
	Bus      *eventbus.Bus
	JWT      service.JWTService
	Config   *config.Config
	Loggers  *applogger.Loggers
}

// Services — то, что нужно main после сборки роутера: подписчики событий.
type Services struct {
	Journal  services.JournalServiceInterface
	Notifier services.WebSocketNotificationServiceInterface
}

func InitRouter(e *echo.Echo, deps Dependencies) *Services {
	loggers := deps.Loggers
	cfg := deps.Config
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	// --- 1. РЕПОЗИТОРИИ ---
	journalRepo := repositories.NewJournalRepository(deps.Pool)
	txManager := repositories.NewTxManager(deps.Pool)
	draftRepo := repositories.NewDraftRepository(deps.Cache, cfg.Cache.DraftTTL)
	prefsRepo := repositories.NewPreferencesRepository(deps.Cache, cfg.Cache.PreferencesTTL)
	optionsCache := repositories.NewOptionsCache(services.NewOptionsLoader(deps.Upstream), cfg.Cache.OptionsTTL)

	// --- 2. СЕРВИСЫ ---
	runner := workflow.NewRunner(deps.Upstream, loggers.Workflow)
	searcher := listing.NewRestSearcher(deps.Upstream)

	authService := services.NewAuthService(deps.JWT, cfg.Admin, loggers.Auth)
	workflowService := services.NewWorkflowService(runner, deps.Upstream, optionsCache, deps.Bus, loggers.Workflow)
	journalService := services.NewJournalService(journalRepo, txManager, runner, loggers.Workflow)
	draftService := services.NewDraftService(draftRepo, optionsCache, runner, workflowService, loggers.Workflow)
	listingService := services.NewListingService(searcher, prefsRepo, cfg.Listing.SearchDebounce, loggers.Listing)
	preferencesService := services.NewPreferencesService(prefsRepo, loggers.Listing)
	notifier := services.NewWebSocketNotificationService(deps.Hub, loggers.Main)

	// --- 3. КОНТРОЛЛЕРЫ ---
	authCtrl := controllers.NewAuthController(authService, loggers.Auth)
	recordCtrl := controllers.NewRecordController(workflowService, loggers.Workflow)
	draftCtrl := controllers.NewDraftController(draftService, loggers.Workflow)
	journalCtrl := controllers.NewJournalController(journalService, loggers.Workflow)
	listingCtrl := controllers.NewListingController(listingService, loggers.Listing)
	prefsCtrl := controllers.NewPreferencesController(preferencesService, loggers.Listing)
	wsCtrl := controllers.NewWebSocketController(deps.Hub, deps.JWT, listingService, loggers.Main)

	// --- 4. РОУТЕРЫ ---
	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(deps.JWT, loggers.Auth)
	secureGroup := api.Group("", authMW.Auth)

	runAuthRouter(api, authCtrl)
	runRecordRouter(secureGroup, recordCtrl, listingCtrl, draftCtrl)
	runDraftRouter(secureGroup, draftCtrl)
	runJournalRouter(secureGroup, journalCtrl)
	runPreferencesRouter(secureGroup, prefsCtrl)

	e.GET("/ws", wsCtrl.ServeWs)

	loggers.Main.Info("InitRouter: Создание маршрутов завершено", zap.Int("routes", len(e.Routes())))
	return &Services{Journal: journalService, Notifier: notifier}
}

func runAuthRouter(api *echo.Group, ctrl *controllers.AuthController) {
	authGroup := api.Group("/auth")
	authGroup.POST("/login", ctrl.Login)
	authGroup.POST("/refresh", ctrl.Refresh)
}

func runRecordRouter(
	secureGroup *echo.Group,
	recordCtrl *controllers.RecordController,
	listingCtrl *controllers.ListingController,
	draftCtrl *controllers.DraftController,
) {
	secureGroup.GET("/entities", recordCtrl.Definitions)

	records := secureGroup.Group("/records")
	records.GET("/:entity", listingCtrl.List)
	records.POST("/:entity", recordCtrl.Create)
	records.DELETE("/:entity/:id", recordCtrl.Delete)
	records.POST("/:entity/drafts", draftCtrl.Create)
}

func runDraftRouter(secureGroup *echo.Group, ctrl *controllers.DraftController) {
	drafts := secureGroup.Group("/drafts")
	drafts.GET("/:id", ctrl.Get)
	drafts.PUT("/:id/payload", ctrl.SetPayload)
	drafts.POST("/:id/options/:assoc", ctrl.AddInline)
	drafts.PUT("/:id/selection/:assoc", ctrl.Select)
	drafts.DELETE("/:id/selection/:assoc/:optionId", ctrl.Deselect)
	drafts.POST("/:id/submit", ctrl.Submit)
}

func runJournalRouter(secureGroup *echo.Group, ctrl *controllers.JournalController) {
	links := secureGroup.Group("/links")
	links.GET("/failures", ctrl.ListFailures)
	links.POST("/failures/:id/retry", ctrl.Retry)
}

func runPreferencesRouter(secureGroup *echo.Group, ctrl *controllers.PreferencesController) {
	secureGroup.GET("/preferences/:entity", ctrl.Get)
	secureGroup.PUT("/preferences/:entity", ctrl.Update)
}
