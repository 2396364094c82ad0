package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tideflow/tideflow-server/internal/logger"
	"github.com/tideflow/tideflow-server/internal/model"
	"github.com/tideflow/tideflow-server/internal/service"
	"github.com/tideflow/tideflow-server/internal/timeframe"
)

// Handler translates inbound HTTP requests into core service calls. It
// owns input parsing and error mapping only; identity arrives already
// resolved in the X-User-ID header and no credential validation happens
// here.
type Handler struct {
	resolver    *service.Resolver
	distributor *service.Distributor
	query       *service.Query
	logger      *logger.Logger
}

func NewHandler(
	resolver *service.Resolver,
	distributor *service.Distributor,
	query *service.Query,
	logger *logger.Logger,
) *Handler {
	return &Handler{
		resolver:    resolver,
		distributor: distributor,
		query:       query,
		logger:      logger,
	}
}

type flowRequest struct {
	Intensity   string `json:"intensity"`
	DurationMin int    `json:"duration_min"`
	EnergyLevel int    `json:"energy_level"`
	WorkContext string `json:"work_context"`
	StartedAt   string `json:"started_at"`
	Date        string `json:"date"`
	Timezone    string `json:"timezone"`
}

type energyRequest struct {
	EnergyLevel int    `json:"energy_level"`
	WorkContext string `json:"work_context"`
	Date        string `json:"date"`
	Timezone    string `json:"timezone"`
}

type projectRequest struct {
	Name string `json:"name"`
}

type legResponse struct {
	ViewKind string `json:"view_kind"`
	TideID   string `json:"tide_id,omitempty"`
	Created  bool   `json:"created"`
	Error    string `json:"error,omitempty"`
}

type distributionResponse struct {
	SessionID string        `json:"session_id"`
	Legs      []legResponse `json:"legs"`
}

type contextResponse struct {
	Tide       model.Tide       `json:"tide"`
	Created    bool             `json:"created"`
	ParentKind model.ViewKind   `json:"parent_kind,omitempty"`
	ParentID   string           `json:"parent_id,omitempty"`
	ChildKinds []model.ViewKind `json:"child_kinds,omitempty"`
}

// RecordFlow handles POST /api/flows.
func (h *Handler) RecordFlow(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	var req flowRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid request body")
	}

	date, err := parseDateParam(req.Date, req.Timezone)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}

	startedAt, err := parseTimeParam(req.StartedAt)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid started_at")
	}

	result, err := h.distributor.DistributeFlow(c.UserContext(), model.FlowParams{
		UserID:      userID,
		Intensity:   model.Intensity(req.Intensity),
		DurationMin: req.DurationMin,
		EnergyLevel: req.EnergyLevel,
		WorkContext: req.WorkContext,
		StartedAt:   startedAt,
		Date:        date,
		Timezone:    req.Timezone,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toDistributionResponse(result))
}

// RecordEnergy handles POST /api/energy.
func (h *Handler) RecordEnergy(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	var req energyRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid request body")
	}

	date, err := parseDateParam(req.Date, req.Timezone)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.distributor.DistributeEnergy(c.UserContext(), model.EnergyParams{
		UserID:      userID,
		EnergyLevel: req.EnergyLevel,
		WorkContext: req.WorkContext,
		Date:        date,
		Timezone:    req.Timezone,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toDistributionResponse(result))
}

// GetContext handles GET /api/context.
func (h *Handler) GetContext(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	timezone := c.Query("timezone")
	date, err := parseDateParam(c.Query("date"), timezone)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}

	resolved, err := h.resolver.ResolveContext(c.UserContext(), model.ResolveParams{
		UserID:          userID,
		ViewKind:        model.ViewKind(c.Query("view_kind")),
		Date:            date,
		Timezone:        timezone,
		CreateIfMissing: c.QueryBool("create", true),
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	resp := contextResponse{
		Tide:       resolved.Tide,
		Created:    resolved.Created,
		ParentKind: resolved.ParentKind,
		ChildKinds: resolved.ChildKinds,
	}
	if resolved.ParentID != uuid.Nil {
		resp.ParentID = resolved.ParentID.String()
	}

	return c.JSON(resp)
}

// CreateProject handles POST /api/projects.
func (h *Handler) CreateProject(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	var req projectRequest
	if err := c.BodyParser(&req); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid request body")
	}

	tide, err := h.resolver.CreateProject(c.UserContext(), userID, req.Name)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(tide)
}

// GetCharts handles GET /api/charts.
func (h *Handler) GetCharts(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	points, err := h.query.ListForCharts(c.UserContext(), userID, model.ViewKind(c.Query("view_kind")), c.QueryInt("limit"))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(points)
}

// GetTide handles GET /api/tides/:id.
func (h *Handler) GetTide(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid tide id")
	}

	tide, err := h.query.GetFullTide(c.UserContext(), id)
	if err != nil {
		return mapServiceError(c, err)
	}
	if tide.UserID != userID {
		// Tides are user-scoped; do not reveal other users' ids exist.
		return apiError(c, fiber.StatusNotFound, "tide not found")
	}

	return c.JSON(tide)
}

// Health handles GET /health.
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func requestUserID(c *fiber.Ctx) (uuid.UUID, error) {
	raw := c.Get("X-User-ID")
	if raw == "" {
		return uuid.Nil, apiError(c, fiber.StatusUnauthorized, "missing X-User-ID header")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apiError(c, fiber.StatusUnauthorized, "invalid X-User-ID header")
	}
	return userID, nil
}

func parseDateParam(value, timezone string) (time.Time, error) {
	if value == "" {
		return time.Time{}, model.NewValidationError("date", "required")
	}
	loc, err := timeframe.Location(timezone)
	if err != nil {
		return time.Time{}, model.NewValidationError("timezone", "unknown IANA zone")
	}
	// Parse in the request zone so the calendar day is the user's day.
	date, err := time.ParseInLocation(timeframe.DateFormat, value, loc)
	if err != nil {
		return time.Time{}, model.NewValidationError("date", "expected YYYY-MM-DD")
	}
	return date, nil
}

func parseTimeParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}

func toDistributionResponse(result model.DistributionResult) distributionResponse {
	resp := distributionResponse{
		SessionID: result.SessionID.String(),
		Legs:      make([]legResponse, 0, len(result.Legs)),
	}
	for _, leg := range result.Legs {
		out := legResponse{
			ViewKind: string(leg.ViewKind),
			Created:  leg.Created,
		}
		if leg.TideID != uuid.Nil {
			out.TideID = leg.TideID.String()
		}
		if leg.Err != nil {
			out.Error = leg.Err.Error()
		}
		resp.Legs = append(resp.Legs, out)
	}
	return resp
}
