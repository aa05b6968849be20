package handler

import (
	"github.com/gin-gonic/gin"

	"travelchat/internal/logger"
	"travelchat/internal/model"
	"travelchat/internal/service"
)

// ChatHandler handles chat query requests
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat handles POST /chat and POST /api/v1/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	ctx := c.Request.Context()

	// A body that is not {"query": "<string>"} is treated as a missing query.
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.FromContext(ctx).Debug("invalid chat request body", "error", err)
		req.Query = ""
	}

	var (
		filters  []string
		listings []model.PublicListing
	)
	res, err := h.chatService.Chat(ctx, req.Query)
	if err == nil {
		filters, listings = res.Filters, res.Listings
	}

	status, body := service.BuildResponse(filters, listings, err)
	// PureJSON keeps <, > and & literal in listing text.
	c.PureJSON(status, body)
}
