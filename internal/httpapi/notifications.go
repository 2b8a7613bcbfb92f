package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/homeboard/internal/notification"
)

const (
	jsonKeyNotifications = "notifications"

	notificationStreamHeartbeat     = 25 * time.Second
	notificationStreamHeartbeatLine = ": keep-alive\n\n"

	logEventMarshalNotification = "marshal_notification_event_failed"
	logEventStreamNotification  = "stream_notification_event"
)

type NotificationHandlers struct {
	center      *notification.Center
	broadcaster *notification.Broadcaster
	logger      *zap.Logger
	heartbeat   time.Duration
}

func NewNotificationHandlers(center *notification.Center, broadcaster *notification.Broadcaster, logger *zap.Logger) *NotificationHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandlers{
		center:      center,
		broadcaster: broadcaster,
		logger:      logger,
		heartbeat:   notificationStreamHeartbeat,
	}
}

func (handlers *NotificationHandlers) List(context *gin.Context) {
	context.JSON(http.StatusOK, gin.H{
		jsonKeyNotifications: handlers.center.Active(ClientIDFromContext(context)),
	})
}

// Dismiss hides a notification of the calling tab. Unknown ids are not an error.
func (handlers *NotificationHandlers) Dismiss(context *gin.Context) {
	handlers.center.Hide(ClientIDFromContext(context), context.Param("id"))
	context.Status(http.StatusNoContent)
}

// Stream sends the active notifications of the calling tab followed by every
// show and hide until the client disconnects.
func (handlers *NotificationHandlers) Stream(ginContext *gin.Context) {
	if handlers.broadcaster == nil {
		ginContext.JSON(http.StatusServiceUnavailable, gin.H{jsonKeyError: errorValueStreamUnavailable})
		return
	}
	clientID := ClientIDFromContext(ginContext)
	subscription := handlers.broadcaster.Subscribe(clientID)
	if subscription == nil {
		ginContext.JSON(http.StatusServiceUnavailable, gin.H{jsonKeyError: errorValueStreamUnavailable})
		return
	}
	defer subscription.Close()

	flusher, flushable := ginContext.Writer.(http.Flusher)
	if !flushable {
		ginContext.JSON(http.StatusServiceUnavailable, gin.H{jsonKeyError: errorValueStreamUnavailable})
		return
	}

	ginContext.Header("Content-Type", "text/event-stream")
	ginContext.Header("Cache-Control", "no-cache")
	ginContext.Header("Connection", "keep-alive")
	ginContext.Writer.WriteHeaderNow()
	flusher.Flush()

	for _, record := range handlers.center.Active(clientID) {
		if !handlers.writeEvent(ginContext, notification.Event{Client: clientID, Kind: notification.KindShow, Record: record}) {
			return
		}
	}
	flusher.Flush()

	heartbeat := time.NewTicker(handlers.heartbeat)
	defer heartbeat.Stop()
	requestContext := ginContext.Request.Context()

	for {
		select {
		case <-requestContext.Done():
			return
		case <-heartbeat.C:
			if _, writeErr := ginContext.Writer.WriteString(notificationStreamHeartbeatLine); writeErr != nil {
				return
			}
			flusher.Flush()
		case event, ok := <-subscription.Events():
			if !ok {
				return
			}
			if !handlers.writeEvent(ginContext, event) {
				return
			}
			flusher.Flush()
			handlers.logger.Debug(logEventStreamNotification,
				zap.String(logFieldClient, clientID),
				zap.String("kind", string(event.Kind)),
				zap.String("notification_id", event.Record.ID),
			)
		}
	}
}

func (handlers *NotificationHandlers) writeEvent(ginContext *gin.Context, event notification.Event) bool {
	serializedPayload, marshalErr := json.Marshal(event)
	if marshalErr != nil {
		handlers.logger.Debug(logEventMarshalNotification, zap.Error(marshalErr))
		return true
	}
	var buffer bytes.Buffer
	buffer.WriteString("event: ")
	buffer.WriteString(string(event.Kind))
	buffer.WriteString("\n")
	buffer.WriteString("data: ")
	buffer.Write(serializedPayload)
	buffer.WriteString("\n\n")
	_, writeErr := ginContext.Writer.Write(buffer.Bytes())
	return writeErr == nil
}
