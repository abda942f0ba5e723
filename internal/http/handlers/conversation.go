package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/relaydesk/relaydesk-backend/internal/domain/chat"
	"github.com/relaydesk/relaydesk-backend/internal/pkg/logger"
	"github.com/relaydesk/relaydesk-backend/internal/services"
)

type ConversationHandler struct {
	conversations services.ConversationService
	log           *logger.Logger
}

func NewConversationHandler(conversations services.ConversationService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		log:           log.With("handler", "ConversationHandler"),
	}
}

type createConversationRequest struct {
	ShopID     string `json:"shop_id" binding:"required"`
	CustomerID string `json:"customer_id" binding:"required"`
}

type conversationResponse struct {
	ID         string  `json:"id"`
	ShopID     string  `json:"shop_id"`
	CustomerID string  `json:"customer_id"`
	AgentID    *string `json:"agent_id,omitempty"`
	Status     string  `json:"status"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
	ClosedAt   *string `json:"closed_at,omitempty"`
}

func conversationToResponse(c *chat.Conversation) conversationResponse {
	resp := conversationResponse{
		ID:         c.ID.String(),
		ShopID:     c.ShopID.String(),
		CustomerID: c.CustomerID.String(),
		Status:     string(c.Status),
		CreatedAt:  c.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:  c.UpdatedAt.UTC().Format(timeFormat),
	}
	if c.AgentID != nil {
		id := c.AgentID.String()
		resp.AgentID = &id
	}
	if c.ClosedAt != nil {
		ts := c.ClosedAt.UTC().Format(timeFormat)
		resp.ClosedAt = &ts
	}
	return resp
}

func (h *ConversationHandler) Create(c *gin.Context) {
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	shopID, err := uuid.Parse(req.ShopID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shop_id"})
		return
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer_id"})
		return
	}

	conv, err := h.conversations.Create(c.Request.Context(), shopID, customerID)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, conversationToResponse(conv))
}

func (h *ConversationHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}
	conv, err := h.conversations.Get(c.Request.Context(), id)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, conversationToResponse(conv))
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *ConversationHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := h.conversations.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		renderError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id.String(), "status": string(status)})
}
