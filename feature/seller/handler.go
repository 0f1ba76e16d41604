package seller

import (
	"errors"
	"time"

	"broker-office/core/logger"
	"broker-office/core/ratelimit"
	"broker-office/core/snapshot"
	"broker-office/core/syncengine"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler exposes the sync and snapshot endpoints.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers the seller sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	sync := app.Group("/sync")
	sync.Post("/run", h.HandleRunSync)
	sync.Post("/export", h.HandleRunExport)
	sync.Get("/status", h.HandleStatus)
	sync.Get("/history", h.HandleHistory)

	snapshots := app.Group("/snapshots")
	snapshots.Post("/", h.HandleCreateSnapshot)
	snapshots.Get("/", h.HandleListSnapshots)
	snapshots.Post("/:id/rollback", h.HandleRollback)
	snapshots.Delete("/:id", h.HandleDeleteSnapshot)
}

// HandleRunSync triggers one sheet-to-store cycle.
func (h *Handler) HandleRunSync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	forceRefresh := c.QueryBool("force_refresh")

	result, err := h.service.Sync(c.Context(), TriggerManual, forceRefresh)
	if err != nil {
		return h.syncError(c, l, result, err)
	}
	return c.JSON(result)
}

// HandleRunExport triggers one store-to-sheet cycle.
func (h *Handler) HandleRunExport(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	result, err := h.service.Export(c.Context(), TriggerManual)
	if err != nil {
		return h.syncError(c, l, result, err)
	}
	return c.JSON(result)
}

// HandleStatus returns the target's state, quota usage, and health.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	report, err := h.service.Status(c.Context())
	if err != nil {
		l.Error("Status aggregation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(report)
}

// HandleHistory returns recent cycle outcomes.
func (h *Handler) HandleHistory(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	limit := c.QueryInt("limit", 20)

	logs, err := h.service.History(c.Context(), limit)
	if err != nil {
		l.Error("History lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(logs)
}

// HandleCreateSnapshot captures a snapshot on demand.
func (h *Handler) HandleCreateSnapshot(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var body struct {
		Description string `json:"description"`
	}
	// An empty body is fine; the description is optional.
	_ = c.BodyParser(&body)

	meta, err := h.service.CreateSnapshot(c.Context(), body.Description)
	if err != nil {
		l.Error("Snapshot creation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(meta)
}

// HandleListSnapshots lists snapshots, newest first.
func (h *Handler) HandleListSnapshots(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	limit := c.QueryInt("limit", 20)

	metas, err := h.service.ListSnapshots(c.Context(), limit)
	if err != nil {
		l.Error("Snapshot listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(metas)
}

// HandleRollback restores the canonical store from a snapshot.
func (h *Handler) HandleRollback(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	id := c.Params("id")

	result, err := h.service.Rollback(c.Context(), id)
	if err != nil {
		status := fiber.StatusInternalServerError
		switch {
		case errors.Is(err, snapshot.ErrNotFound):
			status = fiber.StatusNotFound
		case errors.Is(err, syncengine.ErrAlreadyRunning):
			status = fiber.StatusConflict
		}
		l.Error("Rollback failed", zap.String("snapshot_id", id), zap.Error(err))
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	l.Info("Rollback completed",
		zap.String("snapshot_id", id),
		zap.Int("restored", result.RestoredCount))
	return c.JSON(result)
}

// HandleDeleteSnapshot removes a snapshot.
func (h *Handler) HandleDeleteSnapshot(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	id := c.Params("id")

	if err := h.service.DeleteSnapshot(c.Context(), id); err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, snapshot.ErrNotFound) {
			status = fiber.StatusNotFound
		}
		l.Error("Snapshot deletion failed", zap.String("snapshot_id", id), zap.Error(err))
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// syncError maps cycle failures onto HTTP statuses. A rejected concurrent
// cycle is a conflict, a quota rejection carries a Retry-After hint, and a
// failed cycle still returns its partial result for diagnosis.
func (h *Handler) syncError(c *fiber.Ctx, l *zap.Logger, result *syncengine.CycleResult, err error) error {
	status := fiber.StatusInternalServerError

	var limitErr *ratelimit.LimitError
	switch {
	case errors.Is(err, syncengine.ErrAlreadyRunning):
		status = fiber.StatusConflict
	case errors.As(err, &limitErr):
		status = fiber.StatusTooManyRequests
		c.Set(fiber.HeaderRetryAfter, limitErr.RetryAfter.Round(time.Second).String())
	}

	l.Error("Sync cycle failed", zap.Error(err))
	return c.Status(status).JSON(fiber.Map{
		"error":  err.Error(),
		"result": result,
	})
}
