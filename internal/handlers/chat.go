// internal/handlers/chat.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/awingconnect/license-server/internal/i18n"
	"github.com/awingconnect/license-server/internal/services"
	"github.com/awingconnect/license-server/internal/utils"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

type markMessagesReadRequest struct {
	LicenseKey string `json:"license_key"`
}

// POST /api/send_message
func (h *ChatHandler) SendMessage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.SendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	message, err := h.chatService.SendMessage(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"status":     "success",
		"message_id": message.ID,
		"message":    i18n.T(lang, i18n.KeyChatMessageSent),
	})
}

// GET /api/get_messages
func (h *ChatHandler) GetMessages(c *gin.Context) {
	messages, err := h.chatService.GetMessages(c.Request.Context(), services.MessageFilter{
		LicenseKey: c.Query("license_key"),
		HWID:       c.Query("hwid"),
	})
	if err != nil {
		respondError(c, err, "")
		return
	}

	utils.SuccessResponse(c, gin.H{"messages": messages})
}

// POST /api/messages/:id/mark_read
func (h *ChatHandler) MarkRead(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "message id"), nil)
		return
	}

	if err := h.chatService.MarkRead(c.Request.Context(), uint(id)); err != nil {
		respondError(c, err, "")
		return
	}

	utils.StatusSuccessResponse(c, i18n.T(lang, i18n.KeyChatMessageRead))
}

// GET /api/get_active_users
func (h *ChatHandler) GetActiveUsers(c *gin.Context) {
	users, err := h.chatService.ActiveUsers(c.Request.Context())
	if err != nil {
		respondError(c, err, "")
		return
	}

	utils.SuccessResponse(c, gin.H{"users": users})
}

// POST /api/mark_messages_read
func (h *ChatHandler) MarkLicenseMessagesRead(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req markMessagesReadRequest
	if !bindJSON(c, &req) {
		return
	}

	if _, err := h.chatService.MarkLicenseMessagesRead(c.Request.Context(), req.LicenseKey); err != nil {
		respondError(c, err, "")
		return
	}

	utils.StatusSuccessResponse(c, i18n.T(lang, i18n.KeyChatMessagesRead))
}
