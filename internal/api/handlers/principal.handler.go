package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stratoslabs/dircore/internal/repo/directory"
	"github.com/stratoslabs/dircore/pkg/logger"
)

// PrincipalHandler exposes read access to stored principals.
type PrincipalHandler struct {
	store  directory.Store
	logger logger.Logger
}

func NewPrincipalHandler(store directory.Store, logger logger.Logger) *PrincipalHandler {
	return &PrincipalHandler{store: store, logger: logger}
}

// GET /api/v1/principals/:id - Fetch one principal by numeric id
func (h *PrincipalHandler) GetPrincipal(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Invalid principal id",
		})
		return
	}

	principal, err := h.store.GetPrincipal(c.Request.Context(), uint32(id))
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"status": "error",
				"error":  "Principal not found",
			})
			return
		}
		h.logger.Error("Failed to fetch principal", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   principal,
	})
}
