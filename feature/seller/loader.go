package seller

import (
	"time"

	"broker-office/core/database"
	"broker-office/core/ratelimit"
	"broker-office/core/retry"
	"broker-office/core/sheet"
	"broker-office/core/snapshot"
	"broker-office/core/storage"
	"broker-office/core/syncengine"
	"broker-office/core/synclog"

	"broker-office/feature/seller/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	db      *gorm.DB
	service *Service
	handler *Handler
	logger  *zap.Logger
}

// Deps bundles the shared infrastructure the seller feature builds on.
type Deps struct {
	DB       *gorm.DB
	Objects  storage.Client
	Bucket   string
	Sheet    sheet.Client
	Limiter  *ratelimit.Limiter
	Policy   retry.Policy
	Sync     syncengine.Config
	Health   synclog.Config
	Snapshot snapshot.Config
	Logger   *zap.Logger
}

// NewFeature wires the seller sync target: mapper, store, orchestrator,
// snapshots, and sync logging.
func NewFeature(deps Deps) *Feature {
	mapper := NewMapper()
	store := NewStore(deps.DB)

	exec := retry.NewExecutor(deps.Logger, syncengine.IsRetryable)
	recorder := synclog.NewRecorder(deps.DB)
	cacheTTL := time.Duration(deps.Sync.CacheTTLMinutes) * time.Minute

	orchestrator := syncengine.NewOrchestrator(
		deps.Sheet, store, mapper, exec, deps.Policy, cacheTTL, recorder, deps.Logger)

	snapshots := snapshot.NewManager(
		deps.DB, deps.Objects, deps.Bucket, store, deps.Snapshot, deps.Logger)
	health := synclog.NewHealthAggregator(deps.DB, deps.Health)

	svc := NewService(orchestrator, snapshots, health, recorder, deps.Limiter, deps.Sync, deps.Logger)
	h := NewHandler(svc, deps.Logger)

	return &Feature{db: deps.DB, service: svc, handler: h, logger: deps.Logger}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "seller"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load verifies the canonical table's schema and registers the routes.
func (f *Feature) Load(app fiber.Router) error {
	if err := database.VerifyColumns(f.db, models.Seller{}.TableName(), models.Columns()); err != nil {
		return err
	}
	f.handler.RegisterRoutes(app)
	return nil
}

// Service exposes the sync service so the application can start the
// scheduler and the CLI commands can run cycles without HTTP.
func (f *Feature) Service() *Service {
	return f.service
}
