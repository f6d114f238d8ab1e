// Package handler serves the notification stream over SSE. A stream is
// scoped to the gateway-resolved principal; the path parameter only names
// the stream and must match it.
package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/marcosvcorsi/markethub/internal/httputil"
	"github.com/marcosvcorsi/markethub/internal/notification/hub"
)

type NotificationHandler struct {
	Hub *hub.Hub
}

func NewNotificationHandler(h *hub.Hub) *NotificationHandler {
	return &NotificationHandler{Hub: h}
}

// GET /notifications/stream/:userId
func (h *NotificationHandler) Stream(c *gin.Context) {
	userID := c.Param("userId")
	if caller := httputil.UserID(c); caller != "" && caller != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only stream your own notifications"})
		return
	}

	messages, cancel := h.Hub.Subscribe(userID)
	defer cancel()

	logrus.Infof("notification stream opened for user %s", userID)

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-messages:
			if !ok {
				return false
			}
			c.SSEvent(msg.Event, msg.Payload)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})

	logrus.Infof("notification stream closed for user %s", userID)
}

// GET /health
func (h *NotificationHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "notification"})
}
