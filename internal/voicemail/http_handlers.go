package voicemail

import (
	"errors"
	"net/http"

	"voicemail-platform/internal/telephony"
	"voicemail-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// WebhookHandlers adapts provider webhooks to the orchestrator.
//
// Propagation policy: once the signature middleware has let a request through,
// every handler here answers success-shaped regardless of downstream outcome.
// A non-2xx would put the provider into a retry loop the pipeline cannot use.
type WebhookHandlers struct {
	Service *Service
}

func xmlResponse(c *gin.Context, body string) {
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, body)
}

// HandleGreeting answers the inbound call with recording instructions.
func (h WebhookHandlers) HandleGreeting(c *gin.Context) {
	log := logger.FromGin(c)

	twiml, err := h.Service.GreetingTwiML()
	if err != nil {
		log.Error("greeting setup failed", "err", err)
		xmlResponse(c, telephony.ErrorPrompt())
		return
	}
	xmlResponse(c, twiml)
}

// HandleRecordingComplete stores the new voicemail and confirms to the caller.
func (h WebhookHandlers) HandleRecordingComplete(c *gin.Context) {
	log := logger.FromGin(c)

	f, err := telephony.ParseRecordingComplete(c.Request)
	if err != nil || f.RecordingSID == "" {
		log.Warn("recording webhook unusable", "err", err)
		xmlResponse(c, telephony.ReceivedPrompt())
		return
	}

	rec, err := h.Service.HandleRecordingComplete(c.Request.Context(), f)
	if err != nil {
		log.Error("voicemail store failed", "recording_id", f.RecordingSID, "err", err)
	} else {
		log.Info("voicemail stored", "recording_id", rec.ID, "from", rec.From, "duration", rec.Duration)
	}
	xmlResponse(c, telephony.ReceivedPrompt())
}

// HandleTranscription merges transcription text into the record.
func (h WebhookHandlers) HandleTranscription(c *gin.Context) {
	log := logger.FromGin(c)

	f, err := telephony.ParseTranscription(c.Request)
	if err != nil || f.RecordingSID == "" {
		log.Warn("transcription webhook unusable", "err", err)
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	if _, err := h.Service.HandleTranscription(c.Request.Context(), f); err != nil {
		if errors.Is(err, ErrNotFound) {
			// The provider retries forever on non-2xx, so an unknown recording
			// id is logged and dropped.
			log.Warn("transcription for unknown recording", "recording_id", f.RecordingSID)
		} else {
			log.Error("transcription merge failed", "recording_id", f.RecordingSID, "err", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HandleRecordingStatus merges recording state metadata into the record.
func (h WebhookHandlers) HandleRecordingStatus(c *gin.Context) {
	log := logger.FromGin(c)

	f, err := telephony.ParseRecordingStatus(c.Request)
	if err != nil || f.RecordingSID == "" {
		log.Warn("recording-status webhook unusable", "err", err)
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	if _, err := h.Service.HandleRecordingStatus(c.Request.Context(), f); err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("status for unknown recording", "recording_id", f.RecordingSID)
		} else {
			log.Error("recording-status merge failed", "recording_id", f.RecordingSID, "err", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
