package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"clientdesk/backend/chat/models"
	"clientdesk/backend/chat/service"
	"clientdesk/backend/pkg/logger"
	"clientdesk/backend/pkg/middleware"
	"clientdesk/backend/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024 // 64KB
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// Frame is the envelope for every frame on the conversation socket
type Frame struct {
	Type    string `json:"type"`
	Content any    `json:"content,omitempty"`
}

// Outbound frame types
const (
	frameHistory = "history" // full conversation on connect
	frameMessage = "message" // one live hydrated message
	frameStatus  = "status"  // subscription status transition
	frameError   = "error"
)

// Inbound frame types
const (
	frameSend = "send"
	framePing = "ping"
)

// SendContent is the inbound payload for a send frame
type SendContent struct {
	Message        string `json:"message"`
	AttachmentURL  string `json:"attachment_url,omitempty"`
	AttachmentType string `json:"attachment_type,omitempty"`
}

// StatusContent reports a subscription status transition to the peer
type StatusContent struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Handler serves the per-conversation chat socket: history on connect,
// then a live hydrated stream; inbound send frames persist new messages.
type Handler struct {
	chat    *service.ChatService
	manager *realtime.Manager
	log     *logger.Logger
}

func NewHandler(chat *service.ChatService, manager *realtime.Manager, log *logger.Logger) *Handler {
	return &Handler{chat: chat, manager: manager, log: log}
}

type conn struct {
	ws             *websocket.Conn
	send           chan []byte
	handler        *Handler
	clientID       string
	senderID       string
	viewerIsClient bool
	log            *logger.Logger
}

// Serve upgrades the request and runs the conversation stream. The route
// must sit behind the JWT middleware and the conversation access guard.
func (h *Handler) Serve(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	clientID := c.Param("client_id")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.LogError(err, "websocket upgrade failed", "client_id", clientID)
		return
	}

	cn := &conn{
		ws:             ws,
		send:           make(chan []byte, 64),
		handler:        h,
		clientID:       clientID,
		senderID:       claims.UserID,
		viewerIsClient: claims.IsClient(),
		log:            h.log.WithConversation(clientID),
	}

	go cn.writePump()
	cn.readPump()
}

// open starts the live subscription and then sends the history frame,
// returning the handle so the read loop can tear it down on exit.
// Subscribing first means a message landing during the history fetch shows
// up as a live frame instead of being lost; the peer merges by created_at
// and drops duplicate ids.
func (cn *conn) open(ctx context.Context) *realtime.Subscription {
	sub, err := cn.handler.manager.Subscribe(ctx, cn.clientID, cn.viewerIsClient,
		func(message models.ChatMessage) {
			cn.sendFrame(frameMessage, message)
		},
		func(status realtime.Status, err error) {
			content := StatusContent{Status: string(status)}
			if err != nil {
				content.Error = err.Error()
			}
			cn.sendFrame(frameStatus, content)
		},
	)
	if err != nil {
		// The status frame already carried the error; the socket stays up
		// so the peer can keep reading history and sending messages.
		cn.log.LogError(err, "realtime subscription failed")
		sub = nil
	}

	history, err := cn.handler.chat.FetchConversation(ctx, cn.clientID)
	if err != nil {
		cn.log.LogError(err, "failed to load conversation history")
		cn.sendFrame(frameError, gin.H{"message": "failed to load conversation history"})
	} else {
		cn.sendFrame(frameHistory, gin.H{"messages": history})
	}

	return sub
}

func (cn *conn) readPump() {
	sub := cn.open(context.Background())

	defer func() {
		if sub != nil {
			sub.Close()
		}
		cn.ws.Close()
		close(cn.send)
	}()

	cn.ws.SetReadLimit(maxMessageSize)
	cn.ws.SetReadDeadline(time.Now().Add(pongWait))
	cn.ws.SetPongHandler(func(string) error {
		cn.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := cn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				cn.log.Warn("websocket read error", "error", err.Error())
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			cn.log.Warn("dropping malformed frame", "error", err.Error())
			continue
		}
		cn.handleFrame(frame)
	}
}

func (cn *conn) handleFrame(frame Frame) {
	switch frame.Type {
	case frameSend:
		var content SendContent
		raw, err := json.Marshal(frame.Content)
		if err == nil {
			err = json.Unmarshal(raw, &content)
		}
		if err != nil {
			cn.sendFrame(frameError, gin.H{"message": "invalid send frame"})
			return
		}

		_, err = cn.handler.chat.SendMessage(
			context.Background(),
			cn.clientID,
			cn.senderID,
			content.Message,
			cn.viewerIsClient,
			content.AttachmentURL,
			content.AttachmentType,
		)
		if err != nil {
			cn.log.LogError(err, "failed to send message over socket")
			cn.sendFrame(frameError, gin.H{"message": "failed to send message"})
		}
		// The persisted message comes back through the live feed; no ack
		// frame is needed.

	case framePing:
		cn.sendFrame("pong", nil)

	default:
		cn.log.Warn("unknown frame type", "type", frame.Type)
	}
}

// sendFrame marshals and queues one frame; a peer that cannot drain its
// queue gets disconnected by the write pump rather than blocking delivery
func (cn *conn) sendFrame(frameType string, content any) {
	data, err := json.Marshal(Frame{Type: frameType, Content: content})
	if err != nil {
		cn.log.LogError(err, "failed to marshal frame", "type", frameType)
		return
	}

	defer func() {
		// The send channel closes when readPump exits; a late frame from
		// the subscription goroutine is dropped, not a panic.
		recover() //nolint:errcheck
	}()

	select {
	case cn.send <- data:
	default:
		cn.log.Warn("peer send queue full, dropping frame", "type", frameType)
	}
}

func (cn *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cn.ws.Close()
	}()

	for {
		select {
		case data, ok := <-cn.send:
			cn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				cn.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cn.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			cn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
