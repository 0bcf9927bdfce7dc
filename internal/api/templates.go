package api

import (
	"net/http"

	"event-notifications/internal/models"

	"github.com/gin-gonic/gin"
)

type templateQuery struct {
	NotificationType models.NotificationType `form:"notification_type" binding:"omitempty,notification_type"`
	Channel          models.Channel          `form:"channel" binding:"omitempty,notification_channel"`
	Active           *bool                   `form:"active"`
}

func (h *Handler) listTemplates(c *gin.Context) {
	var q templateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	templates, err := h.deps.Templates.List(c.Request.Context(), principal(c).TenantID, models.TemplateFilter{
		NotificationType: q.NotificationType,
		Channel:          q.Channel,
		Active:           q.Active,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (h *Handler) createTemplate(c *gin.Context) {
	var in models.TemplateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBindError(c, err)
		return
	}

	p := principal(c)
	tpl, err := h.deps.Templates.Create(c.Request.Context(), p.TenantID, p.UserID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tpl)
}

func (h *Handler) updateTemplate(c *gin.Context) {
	var patch models.TemplatePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, err)
		return
	}

	tpl, err := h.deps.Templates.Update(c.Request.Context(), principal(c).TenantID, c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (h *Handler) deleteTemplate(c *gin.Context) {
	id := c.Param("id")
	if err := h.deps.Templates.Delete(c.Request.Context(), principal(c).TenantID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Template deactivated", "id": id})
}
