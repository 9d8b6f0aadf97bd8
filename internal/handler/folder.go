package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"quizly/internal/contract"
	"quizly/internal/db"
)

func (h *Handler) AddFolderRoutes(g *echo.Group) {
	g.GET("/folders", h.GetFolders)
	g.POST("/folders", h.CreateFolder)
	g.PUT("/folders/:id", h.UpdateFolder)
	g.DELETE("/folders/:id", h.DeleteFolder)
}

func (h *Handler) GetFolders(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	folders, err := h.db.GetFolders(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch folders")
	}

	return c.JSON(http.StatusOK, folders)
}

func (h *Handler) CreateFolder(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	var req contract.CreateFolderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to bind request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	folder, err := h.db.CreateFolder(userID, req.Name, req.Description)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create folder")
	}

	return c.JSON(http.StatusCreated, folder)
}

// folderForUser loads a folder and enforces ownership.
func (h *Handler) folderForUser(c echo.Context, userID string) (*db.Folder, error) {
	folderID := c.Param("id")
	if folderID == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Folder ID is required")
	}

	folder, err := h.db.GetFolder(folderID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Folder not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch folder")
	}

	if folder.UserID != userID {
		return nil, echo.NewHTTPError(http.StatusForbidden, "Access denied")
	}

	return folder, nil
}

func (h *Handler) UpdateFolder(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	folder, err := h.folderForUser(c, userID)
	if err != nil {
		return err
	}

	var req contract.UpdateFolderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to bind request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.db.UpdateFolder(folder.ID, req.Name, req.Description); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update folder")
	}

	updated, err := h.db.GetFolder(folder.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch folder")
	}

	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteFolder(c echo.Context) error {
	userID, err := GetUserIDFromToken(c)
	if err != nil {
		return err
	}

	folder, err := h.folderForUser(c, userID)
	if err != nil {
		return err
	}

	// Decks inside the folder survive; they are detached, not deleted.
	if err := h.db.DeleteFolder(folder.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete folder")
	}

	return c.NoContent(http.StatusNoContent)
}
