package webapi

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fincat-app/finchat/assistant"
)

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

// streamFrame 是 /api/chat 下发的 SSE 帧。
// type 取值：delta / reasoning / tool / done / error。
type streamFrame struct {
	Type      string             `json:"type"`
	Content   string             `json:"content,omitempty"`
	Reasoning string             `json:"reasoning,omitempty"`
	Tool      string             `json:"tool,omitempty"`
	Message   *assistant.Message `json:"message,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// handleChat 接收一条用户提问，把回答过程以 SSE 帧推给前端。
func (s *server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	w := c.Writer
	flusher, ok := w.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	send := func(frame streamFrame) {
		data, err := json.Marshal(frame)
		if err != nil {
			log.Printf("[finchat] marshal stream frame: %v", err)
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	final, err := s.assistant.Ask(c.Request.Context(), req.Message, assistant.Events{
		OnDelta: func(delta string) {
			send(streamFrame{Type: "delta", Content: delta})
		},
		OnReasoning: func(delta string) {
			send(streamFrame{Type: "reasoning", Reasoning: delta})
		},
		OnToolCall: func(name string) {
			send(streamFrame{Type: "tool", Tool: name})
		},
	})
	if err != nil {
		log.Printf("[finchat] chat request failed: %v", err)
		send(streamFrame{Type: "error", Error: err.Error()})
		return
	}
	send(streamFrame{Type: "done", Message: final})
}
