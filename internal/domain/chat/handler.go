package chat

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler provides HTTP handlers for the chat domain.
type Handler struct {
	svc *Service
}

// NewHandler creates a new chat handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers all chat routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/chat")
	g.POST("/send", h.SendMessage)
	g.GET("/health-insights/:user_id", h.GetHealthInsights)
}

type sendRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// SendMessage accepts user_id and message from a JSON body or, for older
// clients, from the query string.
func (h *Handler) SendMessage(c echo.Context) error {
	var req sendRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	if req.UserID == "" {
		req.UserID = c.QueryParam("user_id")
	}
	if req.Message == "" {
		req.Message = c.QueryParam("message")
	}

	reply, err := h.svc.Send(c.Request().Context(), req.UserID, req.Message)
	if errors.Is(err, ErrMissingUserID) || errors.Is(err, ErrEmptyMessage) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, reply)
}

func (h *Handler) GetHealthInsights(c echo.Context) error {
	insights, err := h.svc.HealthInsights(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, insights)
}
