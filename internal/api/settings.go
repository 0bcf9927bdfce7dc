package api

import (
	"net/http"

	"event-notifications/internal/common/errors"
	"event-notifications/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) getSettings(c *gin.Context) {
	cfg, err := h.deps.Settings.GetOrCreate(c.Request.Context(), principal(c).TenantID)
	if err != nil {
		respondError(c, errors.NewQueryExecutionFailedError("load settings", err))
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *Handler) updateSettings(c *gin.Context) {
	var patch models.ChannelConfigPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	cfg, err := h.deps.Settings.GetOrCreate(ctx, principal(c).TenantID)
	if err != nil {
		respondError(c, errors.NewQueryExecutionFailedError("load settings", err))
		return
	}

	patch.Apply(cfg)
	if err := h.deps.Settings.Save(ctx, cfg); err != nil {
		respondError(c, errors.NewQueryExecutionFailedError("save settings", err))
		return
	}
	c.JSON(http.StatusOK, cfg)
}
