package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"

	"quizly/internal/contract"
)

// maxUploadBytes caps study-material uploads at 20 MB.
const maxUploadBytes = 20 << 20

func (h *Handler) AddUploadRoutes(g *echo.Group) {
	g.POST("/uploads", h.UploadFile)
}

// UploadFile stores a study document in blob storage and returns its URL.
// Text extraction happens separately via the extract endpoint.
func (h *Handler) UploadFile(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	if h.storageProvider == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "File storage is not configured")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if fileHeader.Size > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file exceeds the 20MB limit")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read upload")
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	path := fmt.Sprintf("uploads/%s/%d%s", userID, time.Now().UnixNano(), filepath.Ext(fileHeader.Filename))

	url, err := h.storageProvider.UploadFile(c.Request().Context(), file, path, contentType)
	if err != nil {
		h.logger.Error("upload failed", "path", path, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to store file")
	}

	return c.JSON(http.StatusCreated, contract.UploadResponse{URL: url})
}
