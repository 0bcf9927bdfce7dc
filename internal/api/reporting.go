package api

import (
	"bytes"
	"net/http"
	"time"

	"event-notifications/internal/common/errors"
	"event-notifications/internal/export"
	"event-notifications/internal/models"

	"github.com/gin-gonic/gin"
)

type historyQuery struct {
	NotificationType models.NotificationType `form:"notification_type" binding:"omitempty,notification_type"`
	Channel          models.Channel          `form:"channel" binding:"omitempty,notification_channel"`
	Status           models.Status           `form:"status" binding:"omitempty,oneof=pending sent failed"`
	EventID          string                  `form:"event_id"`
	Recipient        string                  `form:"recipient"`
	DateFrom         *time.Time              `form:"date_from" time_format:"2006-01-02"`
	DateTo           *time.Time              `form:"date_to" time_format:"2006-01-02"`
	Offset           int                     `form:"offset" binding:"min=0"`
	Limit            int                     `form:"limit" binding:"omitempty,min=1,max=1000"`
}

func (q historyQuery) filter(c *gin.Context) models.HistoryFilter {
	s := scope(c)
	return models.HistoryFilter{
		NotificationType: q.NotificationType,
		Channel:          q.Channel,
		Status:           q.Status,
		EventID:          q.EventID,
		Recipient:        q.Recipient,
		DateFrom:         q.DateFrom,
		DateTo:           q.DateTo,
		Offset:           q.Offset,
		Limit:            q.Limit,
		TenantID:         s.TenantID,
		AllTenants:       s.AllTenants,
	}
}

func (h *Handler) history(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	rows, err := h.deps.Reporting.History(c.Request.Context(), q.filter(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

type searchQuery struct {
	Q    string `form:"q" binding:"required,min=1"`
	Size int    `form:"size" binding:"omitempty,min=1,max=200"`
}

func (h *Handler) searchHistory(c *gin.Context) {
	if h.deps.Search == nil {
		respondError(c, errors.NewSearchDisabledError())
		return
	}

	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.deps.Search.Search(c.Request.Context(), scope(c), q.Q, q.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) dashboard(c *gin.Context) {
	d, err := h.deps.Reporting.Dashboard(c.Request.Context(), scope(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

type statisticsQuery struct {
	PeriodDays int `form:"period_days" binding:"omitempty,min=1,max=365"`
}

func (h *Handler) channelStatistics(c *gin.Context) {
	var q statisticsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	stats, err := h.deps.Reporting.ChannelStatistics(c.Request.Context(), scope(c), q.PeriodDays)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) export(c *gin.Context) {
	format, err := export.ParseFormat(c.Param("format"))
	if err != nil {
		respondError(c, err)
		return
	}

	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}

	rows, err := h.deps.Reporting.ExportRows(c.Request.Context(), q.filter(c))
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, rows); err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+format.Filename())
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
