package httpapi

import (
	"errors"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"

	"voicemail-platform/internal/voicemail"
	"voicemail-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers implements the staff management API. Auth and rate limiting are
// applied by middleware; handlers only translate service results to HTTP.
type Handlers struct {
	Service *voicemail.Service
}

const defaultPageSize = 20

// ListVoicemails returns a page of records, newest first. The response is
// JSON unless the client explicitly prefers HTML.
func (h Handlers) ListVoicemails(c *gin.Context) {
	opts := voicemail.ListOptions{
		Offset:         queryInt(c, "offset", 0),
		Limit:          queryInt(c, "limit", defaultPageSize),
		UnlistenedOnly: c.Query("unlistened") == "true",
	}

	res, err := h.Service.List(c.Request.Context(), opts)
	if err != nil {
		logger.FromGin(c).Error("voicemail list failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	if wantsHTML(c) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.Status(http.StatusOK)
		if err := listPage.Execute(c.Writer, res); err != nil {
			logger.FromGin(c).Error("voicemail list render failed", "err", err)
		}
		return
	}
	c.JSON(http.StatusOK, res)
}

// DeleteVoicemail removes one record by id.
func (h Handlers) DeleteVoicemail(c *gin.Context) {
	id := c.Param("id")
	err := h.Service.Delete(c.Request.Context(), id)
	switch {
	case errors.Is(err, voicemail.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case err != nil:
		logger.FromGin(c).Error("voicemail delete failed", "id", id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// MarkListened flips the listened flag on one record.
func (h Handlers) MarkListened(c *gin.Context) {
	id := c.Param("id")

	body := struct {
		Listened *bool `json:"listened"`
	}{}
	// An empty body means "mark as listened".
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	listened := true
	if body.Listened != nil {
		listened = *body.Listened
	}

	rec, err := h.Service.MarkListened(c.Request.Context(), id, listened)
	switch {
	case errors.Is(err, voicemail.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case err != nil:
		logger.FromGin(c).Error("mark listened failed", "id", id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
	default:
		c.JSON(http.StatusOK, rec)
	}
}

// RefreshLookup forces a fresh caller-intelligence fetch for one record.
func (h Handlers) RefreshLookup(c *gin.Context) {
	id := c.Param("id")
	rec, err := h.Service.RefreshLookup(c.Request.Context(), id)
	switch {
	case errors.Is(err, voicemail.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case err != nil:
		logger.FromGin(c).Error("lookup refresh failed", "id", id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
	default:
		c.JSON(http.StatusOK, rec)
	}
}

func wantsHTML(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	htmlIdx := strings.Index(accept, "text/html")
	if htmlIdx < 0 {
		return false
	}
	jsonIdx := strings.Index(accept, "application/json")
	return jsonIdx < 0 || htmlIdx < jsonIdx
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// The dashboard proper renders client-side; this table is a minimal fallback
// for direct browser access.
var listPage = template.Must(template.New("list").Parse(`<!doctype html>
<html>
<head><title>Voicemails</title></head>
<body>
<h1>Voicemails ({{.Total}})</h1>
<table border="1" cellpadding="4">
<tr><th>Received</th><th>From</th><th>Caller</th><th>Duration</th><th>Status</th><th>Transcription</th><th>Listened</th></tr>
{{range .Records}}
<tr>
<td>{{.CreatedAt.Format "2006-01-02 15:04"}}</td>
<td>{{.From}}</td>
<td>{{.CallerName}}</td>
<td>{{.Duration}}s</td>
<td>{{.Status}}</td>
<td>{{.Transcription}}</td>
<td>{{if .Listened}}yes{{else}}no{{end}}</td>
</tr>
{{end}}
</table>
</body>
</html>
`))
