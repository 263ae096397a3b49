package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-sync/internal/core"
)

// Conversation is what the API needs from a running session.
type Conversation interface {
	Peers(ctx context.Context) ([]string, error)
	SelectPeer(ctx context.Context, peer string) error
	Send(ctx context.Context, text string) (core.Message, error)
	Keystroke(length int)
	ActivePeer() string
	Messages() []core.Message
	Typing() map[string]bool
}

// Handlers serves the local control API.
type Handlers struct {
	conv Conversation
	log  *zerolog.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(conv Conversation, logger *zerolog.Logger) *Handlers {
	return &Handlers{conv: conv, log: logger}
}

// SelectPeerRequest opens a conversation.
type SelectPeerRequest struct {
	Peer string `json:"peer" binding:"required"`
}

// SendRequest submits a message to the active peer.
type SendRequest struct {
	Text string `json:"text"`
}

// TypingRequest reports the current input length.
type TypingRequest struct {
	Length *int `json:"length" binding:"required,min=0"`
}

// MessageResponse is a message as shown to the UI.
type MessageResponse struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Message   string    `json:"message"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Pending   bool      `json:"pending"`
}

// ConversationResponse is the state of the open conversation.
type ConversationResponse struct {
	Peer     string            `json:"peer"`
	Messages []MessageResponse `json:"messages"`
	Typing   map[string]bool   `json:"typing"`
}

// PeersResponse lists known peers.
type PeersResponse struct {
	Peers []string `json:"peers"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Peers handles GET /api/peers.
func (h *Handlers) Peers(c *gin.Context) {
	peers, err := h.conv.Peers(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list peers")
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "failed to list peers"})
		return
	}
	c.JSON(http.StatusOK, PeersResponse{Peers: peers})
}

// Conversation handles GET /api/conversation.
func (h *Handlers) Conversation(c *gin.Context) {
	msgs := h.conv.Messages()
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	c.JSON(http.StatusOK, ConversationResponse{
		Peer:     h.conv.ActivePeer(),
		Messages: out,
		Typing:   h.conv.Typing(),
	})
}

// SelectPeer handles POST /api/conversation/peer.
func (h *Handlers) SelectPeer(c *gin.Context) {
	var req SelectPeerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.conv.SelectPeer(c.Request.Context(), req.Peer); err != nil {
		h.log.Error().Err(err).Str("peer", req.Peer).Msg("failed to open conversation")
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "failed to open conversation"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Send handles POST /api/messages.
func (h *Handlers) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	msg, err := h.conv.Send(c.Request.Context(), req.Text)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrNoActivePeer) {
			status = http.StatusConflict
		} else if errors.Is(err, core.ErrEmptyMessage) {
			status = http.StatusBadRequest
		}
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: core.Code(err)})
		return
	}
	c.JSON(http.StatusAccepted, toMessageResponse(msg))
}

// Typing handles POST /api/typing.
func (h *Handlers) Typing(c *gin.Context) {
	var req TypingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	h.conv.Keystroke(*req.Length)
	c.Status(http.StatusNoContent)
}

func toMessageResponse(m core.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Sender:    m.Sender,
		Receiver:  m.Receiver,
		Message:   m.Text,
		Status:    string(m.Status),
		CreatedAt: m.CreatedAt,
		Pending:   m.Temp,
	}
}
