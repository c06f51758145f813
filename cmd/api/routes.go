package main

import (
	"voicemail-platform/internal/auth"
	"voicemail-platform/internal/config"
	"voicemail-platform/internal/httpapi"
	"voicemail-platform/internal/telephony"
	"voicemail-platform/internal/voicemail"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, cfg config.Config, svc *voicemail.Service, guard *auth.Guard) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks. Every route in this group requires a valid provider
	// signature over the forwarded URL and form body.
	webhooks := r.Group("/webhooks/voice")
	webhooks.Use(telephony.RequireSignature(cfg.Twilio.AuthToken))
	{
		h := voicemail.WebhookHandlers{Service: svc}
		webhooks.POST("/greeting", h.HandleGreeting)
		webhooks.POST("/recording", h.HandleRecordingComplete)
		webhooks.POST("/transcription", h.HandleTranscription)
		webhooks.POST("/recording-status", h.HandleRecordingStatus)
	}

	// Staff management API, shared-secret bearer token with per-IP lockout.
	api := r.Group("/api")
	api.Use(auth.RequireStaffToken(guard))
	{
		h := httpapi.Handlers{Service: svc}
		api.GET("/voicemails", h.ListVoicemails)
		api.DELETE("/voicemails/:id", h.DeleteVoicemail)
		api.POST("/voicemails/:id/listened", h.MarkListened)
		api.POST("/voicemails/:id/lookup", h.RefreshLookup)
	}
}
