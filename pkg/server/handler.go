package server

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mikeboe/research-assistant/pkg/metrics"
	"github.com/mikeboe/research-assistant/pkg/research"
)

type Handler struct {
	Service  *Service
	sessions *sessionStore
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s, sessions: newSessionStore()}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.root)
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.POST("/mcp", h.MCPHandler)

	api := r.Group("/api")
	{
		api.POST("/research", h.research)
	}
}

func (h *Handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Research Assistant API"})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// research validates the request and streams the run as server-sent events.
// Validation failures are answered with 400 before any event is written.
func (h *Handler) research(c *gin.Context) {
	var req ResearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
		return
	}

	requestID := uuid.New().String()
	c.Header("X-Request-ID", requestID)

	events, err := h.Service.Start(c.Request.Context(), requestID, req)
	if err != nil {
		status := http.StatusInternalServerError
		if research.KindOf(err) == research.KindValidation {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": research.UserMessage(err)})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	for ev := range events {
		if err := writeEvent(c.Writer, ev); err != nil {
			h.Service.Logger.Warn("Failed to write event", "request_id", requestID, "error", err)
			return
		}
		if ev.Type != research.EventProgress {
			return
		}
	}
}

// writeEvent frames ev as "event: <type>\ndata: <json>\n\n" and flushes it.
func writeEvent(w gin.ResponseWriter, ev research.Event) error {
	var data bytes.Buffer
	enc := json.NewEncoder(&data)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ev.Payload()); err != nil {
		return err
	}

	var frame bytes.Buffer
	frame.WriteString("event: ")
	frame.WriteString(string(ev.Type))
	frame.WriteString("\ndata: ")
	frame.Write(bytes.TrimRight(data.Bytes(), "\n"))
	frame.WriteString("\n\n")

	if _, err := w.Write(frame.Bytes()); err != nil {
		return err
	}
	w.Flush()
	return nil
}
