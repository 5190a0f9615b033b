package guardians

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/secondopinion/companion/internal/domain/records"
	"github.com/secondopinion/companion/pkg/pagination"
)

// Handler provides HTTP handlers for the guardians domain.
type Handler struct {
	svc *Service
}

// NewHandler creates a new guardians handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers all guardian routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/guardians")
	g.POST("/add/:user_id", h.AddGuardian)
	g.GET("/list/:user_id", h.ListGuardians)
	g.GET("/view/:user_id/:guardian_id", h.ViewHealthData)
	g.POST("/alerts/:user_id", h.EnableAlerts)
}

type addRequest struct {
	GuardianName string `json:"guardian_name" query:"guardian_name" form:"guardian_name"`
	Relationship string `json:"relationship" query:"relationship" form:"relationship"`
	AccessLevel  string `json:"access_level" query:"access_level" form:"access_level"`
}

// AddGuardian reads guardian_name, relationship and access_level from a JSON
// body or the query string.
func (h *Handler) AddGuardian(c echo.Context) error {
	var req addRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	g, err := h.svc.Add(c.Request().Context(), c.Param("user_id"), AddRequest{
		Name:         req.GuardianName,
		Relationship: req.Relationship,
		AccessLevel:  req.AccessLevel,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "success",
		"message":  fmt.Sprintf("Guardian %s added with %s access", g.Name, g.AccessLevel),
		"guardian": g,
	})
}

func (h *Handler) ListGuardians(c echo.Context) error {
	userID := c.Param("user_id")
	gs, err := h.svc.List(c.Request().Context(), userID)
	if err != nil {
		return mapError(err)
	}

	p := pagination.FromContext(c)
	page := pagination.Page(gs, p)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user_id":   userID,
		"guardians": page,
		"count":     len(page),
		"total":     len(gs),
		"has_more":  p.HasNext(len(gs)),
	})
}

func (h *Handler) ViewHealthData(c echo.Context) error {
	v, err := h.svc.View(c.Request().Context(), c.Param("user_id"), c.Param("guardian_id"))
	if err != nil {
		return mapError(err)
	}

	body := map[string]interface{}{
		"guardian_name": v.Guardian.Name,
		"relationship":  v.Guardian.Relationship,
		"access_level":  v.Guardian.AccessLevel,
	}
	switch v.Guardian.AccessLevel {
	case records.AccessViewAll:
		body["user_profile"] = v.Profile
		body["recent_metrics"] = v.RecentMetrics
		body["alerts"] = v.Alerts
	case records.AccessViewAlerts:
		body["alerts"] = v.Alerts
	case records.AccessViewBasic:
		body["basic_info"] = v.BasicInfo
	}
	return c.JSON(http.StatusOK, body)
}

func (h *Handler) EnableAlerts(c echo.Context) error {
	types, err := h.svc.EnableAlerts(c.Request().Context(), c.Param("user_id"), c.QueryParam("guardian_id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "success",
		"message":     "Guardian alerts enabled",
		"alert_types": types,
	})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrGuardianNotAuthorized):
		return echo.NewHTTPError(http.StatusForbidden, "Guardian not authorized")
	case errors.Is(err, ErrUnknownAccessLevel):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrMissingName), errors.Is(err, ErrMissingRelationship):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
