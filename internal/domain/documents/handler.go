package documents

import (
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/secondopinion/companion/internal/platform/blobstore"
	"github.com/secondopinion/companion/pkg/pagination"
)

// Handler provides HTTP handlers for the documents domain.
type Handler struct {
	svc *Service
}

// NewHandler creates a new documents handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers all document routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/documents")
	g.POST("/upload/:user_id", h.UploadDocument)
	g.GET("/list/:user_id", h.ListDocuments)
	g.GET("/:user_id/:document_id", h.GetDocument)
	g.GET("/:user_id/:document_id/file", h.DownloadDocument)
}

func (h *Handler) UploadDocument(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open uploaded file")
	}
	defer src.Close()

	doc, err := h.svc.Upload(c.Request().Context(), c.Param("user_id"), Upload{
		FileName:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Content:     src,
	})
	if err != nil {
		switch {
		case errors.Is(err, blobstore.ErrFileTooLarge):
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, ErrMissingFileName), errors.Is(err, blobstore.ErrMissingFileName):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "Upload failed: "+err.Error())
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":               "success",
		"document_id":          doc.DocumentID,
		"message":              fmt.Sprintf("Document %s uploaded and analyzed successfully", doc.FileName),
		"analysis":             doc.Analysis,
		"extracted_conditions": doc.Analysis.ExtractedConditions,
	})
}

func (h *Handler) ListDocuments(c echo.Context) error {
	userID := c.Param("user_id")
	docs, err := h.svc.List(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	p := pagination.FromContext(c)
	page := pagination.Page(docs, p)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user_id":   userID,
		"documents": page,
		"count":     len(page),
		"total":     len(docs),
		"has_more":  p.HasNext(len(docs)),
	})
}

func (h *Handler) GetDocument(c echo.Context) error {
	doc, err := h.svc.Get(c.Request().Context(), c.Param("user_id"), c.Param("document_id"))
	if errors.Is(err, ErrDocumentNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Document not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) DownloadDocument(c echo.Context) error {
	rc, meta, err := h.svc.Open(c.Request().Context(), c.Param("user_id"), c.Param("document_id"))
	if errors.Is(err, ErrDocumentNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Document not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer rc.Close()

	c.Response().Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": meta.FileName}))
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}
