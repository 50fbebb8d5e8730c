package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pricewatch/engine/internal/geo"
	"github.com/pricewatch/engine/internal/ledger"
	"github.com/pricewatch/engine/internal/rate"
	"github.com/pricewatch/engine/internal/store"
	"github.com/pricewatch/engine/pkg/model"
)

// Engine defines the engine operations the HTTP layer exposes.
type Engine interface {
	SubmitPrice(ctx context.Context, in ledger.SubmitInput) (*model.PriceRecord, error)
	CastVote(ctx context.Context, recordID uuid.UUID, voterID string, endorses bool) (model.TransitionResult, error)
	Compare(ctx context.Context, productID string, origin model.Coordinate, radiusKm float64) ([]model.StorePrice, error)
	LowestPrice(ctx context.Context, productID string) (*model.PriceRecord, error)
	Trend(ctx context.Context, productID string, days int) ([]model.TrendPoint, error)
	Statistics(ctx context.Context, productID string) (*model.Statistics, error)
	Trending(ctx context.Context, limit int) ([]model.TrendingProduct, error)
	CreateAlert(ctx context.Context, userID, productID, storeID string, target decimal.Decimal) (*model.PriceAlert, error)
	RemoveAlert(ctx context.Context, id uuid.UUID) error
	ListAlerts(ctx context.Context, userID string) ([]model.PriceAlert, error)
	SubmissionStats(ctx context.Context) (model.SubmissionStats, error)
	VerificationStats(ctx context.Context) (ledger.VerificationStats, error)
}

// Handler serves the price verification and comparison API.
type Handler struct {
	logger           *zap.Logger
	engine           Engine
	limits           *rate.Manager // nil disables submission throttling
	defaultRadiusKm  float64
	defaultTrendDays int
}

// NewHandler creates a Handler with the query defaults from config.
func NewHandler(logger *zap.Logger, eng Engine, limits *rate.Manager, defaultRadiusKm float64, defaultTrendDays int) *Handler {
	return &Handler{
		logger:           logger,
		engine:           eng,
		limits:           limits,
		defaultRadiusKm:  defaultRadiusKm,
		defaultTrendDays: defaultTrendDays,
	}
}

// throttled checks the mutation rate limit for key. Anonymous callers are
// keyed by client IP.
func (h *Handler) throttled(c *fiber.Ctx, key string) bool {
	if h.limits == nil {
		return false
	}
	if key == "" {
		key = c.IP()
	}
	return !h.limits.Allow(key)
}

// SubmitPrice handles POST /api/v1/prices.
func (h *Handler) SubmitPrice(c *fiber.Ctx) error {
	var req SubmitPriceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if h.throttled(c, req.UserID) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "submission rate exceeded"})
	}

	in := ledger.SubmitInput{
		ProductID: req.ProductID,
		StoreID:   req.StoreID,
		UserID:    req.UserID,
		Price:     decimal.NewFromFloat(req.Price),
		OnSale:    req.OnSale,
	}
	if req.ObservedAt != "" {
		observedAt, _ := time.Parse(time.RFC3339, req.ObservedAt) // validated above
		in.ObservedAt = observedAt
	}

	rec, err := h.engine.SubmitPrice(c.Context(), in)
	if err != nil {
		h.logger.Warn("api.submit_price.failed",
			zap.String("product_id", req.ProductID),
			zap.Error(err))
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

// CastVote handles POST /api/v1/prices/:id/votes.
func (h *Handler) CastVote(c *fiber.Ctx) error {
	recordID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid record id"})
	}

	var req CastVoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if h.throttled(c, req.VoterID) {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "vote rate exceeded"})
	}

	res, err := h.engine.CastVote(c.Context(), recordID, req.VoterID, req.Endorses)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// Compare handles GET /api/v1/products/:id/compare.
func (h *Handler) Compare(c *fiber.Ctx) error {
	productID := c.Params("id")
	origin := model.Coordinate{
		Lat: c.QueryFloat("lat"),
		Lon: c.QueryFloat("lon"),
	}
	radius := c.QueryFloat("radius_km", h.defaultRadiusKm)

	prices, err := h.engine.Compare(c.Context(), productID, origin, radius)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"product_id": productID, "stores": prices})
}

// LowestPrice handles GET /api/v1/products/:id/lowest.
func (h *Handler) LowestPrice(c *fiber.Ctx) error {
	rec, err := h.engine.LowestPrice(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if rec == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no verified price"})
	}
	return c.JSON(rec)
}

// Trend handles GET /api/v1/products/:id/trend.
func (h *Handler) Trend(c *fiber.Ctx) error {
	days := c.QueryInt("days", h.defaultTrendDays)
	points, err := h.engine.Trend(c.Context(), c.Params("id"), days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"product_id": c.Params("id"), "days": days, "points": points})
}

// Statistics handles GET /api/v1/products/:id/stats.
func (h *Handler) Statistics(c *fiber.Ctx) error {
	stats, err := h.engine.Statistics(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if stats == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no verified price"})
	}
	return c.JSON(stats)
}

// Trending handles GET /api/v1/products/trending.
func (h *Handler) Trending(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	trending, err := h.engine.Trending(c.Context(), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"products": trending})
}

// CreateAlert handles POST /api/v1/alerts.
func (h *Handler) CreateAlert(c *fiber.Ctx) error {
	var req CreateAlertRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	alert, err := h.engine.CreateAlert(c.Context(), req.UserID, req.ProductID, req.StoreID, decimal.NewFromFloat(req.TargetPrice))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(alert)
}

// RemoveAlert handles DELETE /api/v1/alerts/:id.
func (h *Handler) RemoveAlert(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid alert id"})
	}
	if err := h.engine.RemoveAlert(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListAlerts handles GET /api/v1/users/:id/alerts.
func (h *Handler) ListAlerts(c *fiber.Ctx) error {
	alerts, err := h.engine.ListAlerts(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"alerts": alerts})
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(c *fiber.Ctx) error {
	sub, err := h.engine.SubmissionStats(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	ver, err := h.engine.VerificationStats(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"submissions": sub, "verification": ver})
}

// respondError maps engine errors to HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ledger.ErrInvalidPrice), errors.Is(err, geo.ErrInvalidArgument):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ledger.ErrRecordNotFound), errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ledger.ErrRecordFinalized):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
