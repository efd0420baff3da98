package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mikeboe/research-assistant/pkg/research"
)

// MCPSession represents an MCP session
type MCPSession struct {
	ID      string
	Created int64
}

type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*MCPSession
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*MCPSession)}
}

func (s *sessionStore) create() string {
	id := uuid.New().String()
	s.mu.Lock()
	s.sessions[id] = &MCPSession{ID: id, Created: time.Now().Unix()}
	s.mu.Unlock()
	return id
}

func (s *sessionStore) exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[id]
	return ok
}

// MCPRequest represents an MCP JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an MCP JSON-RPC response
type MCPResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *MCPError `json:"error,omitempty"`
}

// MCPError represents an MCP error
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const researchToolName = "research_topic"

// MCPHandler handles MCP protocol requests
func (h *Handler) MCPHandler(c *gin.Context) {
	sessionID := c.GetHeader("Mcp-Session-Id")

	var req MCPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, MCPResponse{
			JSONRPC: "2.0",
			Error:   &MCPError{Code: -32700, Message: "Parse error"},
		})
		return
	}

	if req.Method == "initialize" {
		if sessionID == "" || !h.sessions.exists(sessionID) {
			sessionID = h.sessions.create()
		}
		c.Header("Mcp-Session-Id", sessionID)
		c.JSON(http.StatusOK, MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result: map[string]any{
				"protocolVersion": "2024-11-05",
				"serverInfo": map[string]any{
					"name":    "research-assistant-mcp",
					"version": "1.0.0",
				},
				"capabilities": map[string]any{
					"tools": map[string]any{},
				},
			},
		})
		return
	}

	if sessionID == "" {
		c.JSON(http.StatusBadRequest, MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &MCPError{Code: -32000, Message: "Bad Request: No valid session ID provided"},
		})
		return
	}
	if !h.sessions.exists(sessionID) {
		c.JSON(http.StatusBadRequest, MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &MCPError{Code: -32000, Message: "Invalid session ID"},
		})
		return
	}

	switch req.Method {
	case "tools/list":
		h.handleToolsList(c, req)
	case "tools/call":
		h.handleToolsCall(c, req)
	case "ping":
		c.JSON(http.StatusOK, MCPResponse{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{}})
	default:
		h.sendError(c, req.ID, -32601, "Method not found")
	}
}

func (h *Handler) handleToolsList(c *gin.Context, req MCPRequest) {
	c.JSON(http.StatusOK, MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]any{
			"tools": []map[string]any{
				{
					"name":        researchToolName,
					"description": "Research a topic on the web and return a cited report with a summary, key points and a source comparison.",
					"inputSchema": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"topic": map[string]any{
								"type":        "string",
								"description": "The research topic or question.",
							},
							"num_sources": map[string]any{
								"type":        "number",
								"description": "How many sources to consult.",
								"default":     research.DefaultSources,
								"minimum":     research.MinSources,
								"maximum":     research.MaxSources,
							},
							"output_format": map[string]any{
								"type":        "string",
								"description": "Report format.",
								"enum":        []string{string(research.FormatMarkdown), string(research.FormatJSON)},
								"default":     string(research.FormatMarkdown),
							},
						},
						"required": []string{"topic"},
					},
				},
			},
		},
	})
}

func (h *Handler) handleToolsCall(c *gin.Context, req MCPRequest) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		h.sendError(c, req.ID, -32602, "Invalid params")
		return
	}

	switch params.Name {
	case researchToolName:
		var args ResearchRequest
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			h.sendError(c, req.ID, -32602, "Invalid arguments")
			return
		}
		result, err := h.Service.Research(c.Request.Context(), uuid.New().String(), args)
		if err != nil {
			if research.KindOf(err) == research.KindValidation {
				h.sendError(c, req.ID, -32602, research.UserMessage(err))
				return
			}
			// Error events already carry the user-facing message.
			h.sendError(c, req.ID, -32603, err.Error())
			return
		}
		h.sendResult(c, req.ID, result.Result)

	default:
		h.sendError(c, req.ID, -32601, fmt.Sprintf("Tool not found: %s", params.Name))
	}
}

func (h *Handler) sendError(c *gin.Context, id any, code int, msg string) {
	c.JSON(http.StatusOK, MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &MCPError{Code: code, Message: msg},
	})
}

func (h *Handler) sendResult(c *gin.Context, id any, text string) {
	c.JSON(http.StatusOK, MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result: map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": text},
			},
		},
	})
}
