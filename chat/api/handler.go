package api

import (
	"net/http"

	"clientdesk/backend/chat/service"
	"clientdesk/backend/pkg/config"
	"clientdesk/backend/pkg/errors"
	"clientdesk/backend/pkg/middleware"
	"clientdesk/backend/storage"

	"github.com/gin-gonic/gin"
)

// SendMessageRequest is the request body for posting a chat message
type SendMessageRequest struct {
	Message        string `json:"message"`
	AttachmentURL  string `json:"attachment_url,omitempty"`
	AttachmentType string `json:"attachment_type,omitempty"`
}

// MessageHandler exposes conversation history, send and upload endpoints
type MessageHandler struct {
	chat     *service.ChatService
	uploader *storage.Uploader
}

func NewMessageHandler(chat *service.ChatService, uploader *storage.Uploader) *MessageHandler {
	return &MessageHandler{chat: chat, uploader: uploader}
}

// RegisterRoutesV1 mounts the chat routes under /api/v1
func (h *MessageHandler) RegisterRoutesV1(v1 *gin.RouterGroup, jwtAuth gin.HandlerFunc) {
	chat := v1.Group("/chat")
	chat.Use(jwtAuth)
	{
		convo := chat.Group("/:client_id")
		convo.Use(middleware.RequireConversationAccess())
		{
			convo.GET("/messages", h.GetConversation)
			convo.POST("/messages", h.SendMessage)
			convo.POST("/attachments", h.UploadAttachment)
		}

		chat.POST("/messages/:id/read", h.MarkRead)
	}
}

func (h *MessageHandler) GetConversation(c *gin.Context) {
	messages, err := h.chat.FetchConversation(c.Request.Context(), c.Param("client_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	message, err := h.chat.SendMessage(
		c.Request.Context(),
		c.Param("client_id"),
		claims.UserID,
		req.Message,
		claims.IsClient(),
		req.AttachmentURL,
		req.AttachmentType,
	)
	if err != nil {
		c.Error(err)
		return
	}

	// Empty text with no attachment is a deliberate no-op, not an error
	if message == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusCreated, message)
}

func (h *MessageHandler) UploadAttachment(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authentication required"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(errors.NewBadRequestError("MISSING_FILE", "A file form field is required"))
		return
	}
	if maxSize := config.Get().Security.MaxUploadSize; fileHeader.Size > maxSize {
		c.Error(errors.NewBadRequestError("FILE_TOO_LARGE", "Attachment exceeds the upload size limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.Error(errors.NewBadRequestError("UNREADABLE_FILE", err.Error()))
		return
	}
	defer file.Close()

	attachment, err := h.uploader.Upload(
		c.Request.Context(),
		file,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		c.Param("client_id"),
		!claims.IsClient(),
	)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, attachment)
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	// Best-effort by design; always acknowledges
	h.chat.MarkRead(c.Request.Context(), c.Param("id"))
	c.Status(http.StatusNoContent)
}
