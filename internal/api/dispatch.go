package api

import (
	"context"
	"net/http"

	"event-notifications/internal/common/errors"
	"event-notifications/internal/models"
	"event-notifications/internal/notification"

	"github.com/gin-gonic/gin"
)

// sendManual accepts the request and delivers it in the background. The
// caller only learns that the send was queued.
func (h *Handler) sendManual(c *gin.Context) {
	var req models.ManualSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tenantID := principal(c).TenantID
	h.background.Add(1)
	go func() {
		defer h.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), h.deps.ManualSendTimeout)
		defer cancel()

		n, err := h.deps.Dispatcher.SendManual(ctx, tenantID, req)
		if err != nil {
			fields := map[string]interface{}{"recipient": req.Recipient, "channel": req.Channel}
			if n != nil {
				fields["notificationId"] = n.ID
			}
			h.logger.WithError(err).Error("Manual send failed", fields)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"message": "Notification queued for sending"})
}

func (h *Handler) dispatchEvent(c *gin.Context) {
	var req models.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.Context == nil {
		req.Context = map[string]interface{}{}
	}

	created, err := h.deps.Dispatcher.ProcessEvent(c.Request.Context(), principal(c).TenantID, req.Event, req.Context)
	if err != nil {
		respondError(c, err)
		return
	}

	_, mapped := notification.TypeForEvent(req.Event)
	c.JSON(http.StatusOK, gin.H{
		"event":      req.Event,
		"mapped":     mapped,
		"dispatched": created,
	})
}

func (h *Handler) testChannel(c *gin.Context) {
	channel := models.Channel(c.Param("channel"))
	if !channel.Valid() {
		respondError(c, errors.NewInvalidChannelError(string(channel)))
		return
	}
	recipient := c.Query("recipient")
	if recipient == "" {
		respondError(c, errors.NewInvalidRequestError("recipient query parameter is required"))
		return
	}

	res, err := h.deps.Dispatcher.SendTest(c.Request.Context(), principal(c).TenantID, channel, recipient)
	if err != nil {
		if stdErr, ok := errors.As(err); ok && stdErr.Code == errors.ErrCodeInvalidChannel {
			respondError(c, err)
			return
		}
		res = &models.TestSendResult{Success: false, Message: notification.SendTestFailureMessage(channel, err.Error()), Error: err.Error()}
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) types(c *gin.Context) {
	c.JSON(http.StatusOK, notification.TypeCatalog())
}

func (h *Handler) channels(c *gin.Context) {
	c.JSON(http.StatusOK, notification.ChannelCatalog())
}
