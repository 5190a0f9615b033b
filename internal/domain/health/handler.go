package health

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/secondopinion/companion/internal/domain/records"
)

// DefaultMetricDays is the metrics window returned when days is omitted.
const DefaultMetricDays = 30

// Handler provides HTTP handlers for the health domain.
type Handler struct {
	svc *Service
}

// NewHandler creates a new health handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers all health routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/health")
	g.GET("/init/:user_id", h.InitHealthData)
	g.GET("/metrics/:user_id", h.GetMetrics)
	g.POST("/metrics/:user_id", h.AddMetric)
	g.GET("/profile/:user_id", h.GetProfile)
	g.PUT("/profile/:user_id", h.SaveProfile)
	g.GET("/summary/:user_id", h.GetSummary)
}

func (h *Handler) InitHealthData(c echo.Context) error {
	userID := c.Param("user_id")
	if _, err := h.svc.InitMockData(c.Request().Context(), userID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "initialized",
		"user_id": userID,
		"message": "Health data initialized with 30 days of mock data",
	})
}

func (h *Handler) GetMetrics(c echo.Context) error {
	userID := c.Param("user_id")
	days := DefaultMetricDays
	if v := c.QueryParam("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid days")
		}
		days = n
	}
	metrics, err := h.svc.ListMetrics(c.Request().Context(), userID, days)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"metrics": metrics,
		"count":   len(metrics),
	})
}

func (h *Handler) AddMetric(c echo.Context) error {
	var m records.HealthMetric
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m, err := h.svc.AddMetric(c.Request().Context(), c.Param("user_id"), m)
	if errors.Is(err, ErrMissingUserID) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Health metric recorded",
		"metric":  m,
	})
}

func (h *Handler) GetProfile(c echo.Context) error {
	p, err := h.svc.GetProfile(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if p == nil {
		return echo.NewHTTPError(http.StatusNotFound, "profile not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) SaveProfile(c echo.Context) error {
	var p records.UserProfile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	saved, err := h.svc.SaveProfile(c.Request().Context(), c.Param("user_id"), p)
	if errors.Is(err, ErrMissingUserID) || errors.Is(err, ErrMissingName) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, saved)
}

func (h *Handler) GetSummary(c echo.Context) error {
	sum, err := h.svc.GetSummary(c.Request().Context(), c.Param("user_id"))
	if errors.Is(err, ErrNoHealthData) {
		return echo.NewHTTPError(http.StatusNotFound, "No health data found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, sum)
}
