package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/ssanidhya0407/thriveup-messaging/internal/domain/entity"
	"github.com/ssanidhya0407/thriveup-messaging/internal/infrastructure/live"
	ws "github.com/ssanidhya0407/thriveup-messaging/internal/infrastructure/websocket"
	"github.com/ssanidhya0407/thriveup-messaging/internal/usecase"
	"github.com/ssanidhya0407/thriveup-messaging/pkg/errors"
	"github.com/ssanidhya0407/thriveup-messaging/pkg/response"
)

// StreamHandler bridges the live subscription manager to WebSocket clients.
// One socket follows one thread; the subscription is released on every
// disconnect path.
type StreamHandler struct {
	manager   *live.Manager
	messaging *usecase.MessagingUseCase
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func NewStreamHandler(manager *live.Manager, messaging *usecase.MessagingUseCase) *StreamHandler {
	return &StreamHandler{
		manager:   manager,
		messaging: messaging,
	}
}

func (h *StreamHandler) HandleThreadStream(c echo.Context) error {
	viewerID, ok := c.Get("uid").(string)
	if !ok || viewerID == "" {
		return errors.Unauthorized("Authentication required", nil)
	}

	threadID := c.Param("id")

	isParticipant, err := h.messaging.IsParticipant(c.Request().Context(), viewerID, threadID)
	if err != nil {
		return response.Error(c, err)
	}
	if !isParticipant {
		return errors.Forbidden("User is not a participant in this thread", nil)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := ws.NewClient(viewerID, conn)
	observer := newStreamObserver(client, viewerID)

	// The subscription must outlive this request; teardown happens when the
	// read pump sees the socket close.
	token, err := h.manager.Subscribe(context.Background(), threadID, observer)
	if err != nil {
		conn.Close()
		return response.Error(c, err)
	}

	go client.WritePump()
	go client.ReadPump(func() {
		h.manager.Unsubscribe(threadID, token)
		observer.close()
	})

	return nil
}

type streamObserver struct {
	client   *ws.Client
	viewerID string

	mu     sync.Mutex
	closed bool
}

func newStreamObserver(client *ws.Client, viewerID string) *streamObserver {
	return &streamObserver{
		client:   client,
		viewerID: viewerID,
	}
}

type streamPayload struct {
	Type     string            `json:"type"`
	ThreadID string            `json:"thread_id"`
	Messages []*entity.Message `json:"messages,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// OnMessages implements live.Observer.
func (o *streamObserver) OnMessages(threadID string, messages []*entity.Message) {
	// Copy before marking ownership; the batch is shared with the other
	// observers of this thread.
	viewed := make([]*entity.Message, len(messages))
	for i, m := range messages {
		msg := *m
		msg.IsFromCurrentUser = msg.SenderID == o.viewerID
		viewed[i] = &msg
	}

	payload, err := json.Marshal(streamPayload{
		Type:     "messages",
		ThreadID: threadID,
		Messages: viewed,
	})
	if err != nil {
		return
	}

	o.enqueue(payload)
}

// OnFeedClosed implements live.Observer. Clients re-subscribe by reconnecting.
func (o *streamObserver) OnFeedClosed(threadID string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}

	payload, marshalErr := json.Marshal(streamPayload{
		Type:     "feed_closed",
		ThreadID: threadID,
		Error:    msg,
	})
	if marshalErr == nil {
		o.enqueue(payload)
	}

	o.close()
}

func (o *streamObserver) enqueue(payload []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	select {
	case o.client.Send <- payload:
	default:
		// Slow consumer; drop this batch, the next one carries the full
		// ordered sequence anyway.
	}
}

func (o *streamObserver) close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.closed = true
	close(o.client.Send)
}
