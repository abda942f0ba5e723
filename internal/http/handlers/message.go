package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/relaydesk/relaydesk-backend/internal/domain/chat"
	"github.com/relaydesk/relaydesk-backend/internal/pkg/logger"
	"github.com/relaydesk/relaydesk-backend/internal/services"
)

const timeFormat = time.RFC3339

type MessageHandler struct {
	messages services.MessageService
	log      *logger.Logger
}

func NewMessageHandler(messages services.MessageService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		messages: messages,
		log:      log.With("handler", "MessageHandler"),
	}
}

type sendMessageRequest struct {
	SenderID    string         `json:"sender_id" binding:"required"`
	SenderType  string         `json:"sender_type" binding:"required"`
	Content     string         `json:"content"`
	MessageType string         `json:"message_type"`
	Metadata    map[string]any `json:"metadata"`
}

type messageResponse struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	SenderID       string         `json:"sender_id"`
	SenderType     string         `json:"sender_type"`
	Content        string         `json:"content"`
	MessageType    string         `json:"message_type"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      string         `json:"created_at"`
}

func messageToResponse(m chat.Message) messageResponse {
	return messageResponse{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID.String(),
		SenderType:     string(m.SenderType),
		Content:        m.Content,
		MessageType:    m.MessageType,
		Metadata:       m.Metadata,
		CreatedAt:      m.CreatedAt.UTC().Format(timeFormat),
	}
}

func (h *MessageHandler) Send(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	senderID, err := uuid.Parse(req.SenderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sender_id"})
		return
	}

	msg, err := h.messages.Send(c.Request.Context(), services.SendMessageInput{
		ConversationID: conversationID,
		SenderID:       senderID,
		SenderType:     req.SenderType,
		Content:        req.Content,
		MessageType:    req.MessageType,
		Metadata:       req.Metadata,
	})
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, messageToResponse(*msg))
}

func (h *MessageHandler) List(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	msgs, err := h.messages.List(c.Request.Context(), conversationID, limit)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageToResponse(m))
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

type updateMessageRequest struct {
	Content string `json:"content"`
}

func (h *MessageHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}
	var req updateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messages.Update(c.Request.Context(), id, req.Content)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, messageToResponse(*msg))
}

func (h *MessageHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}
	soft := c.DefaultQuery("soft", "true") == "true"

	if err := h.messages.Delete(c.Request.Context(), id, soft); err != nil {
		renderError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
