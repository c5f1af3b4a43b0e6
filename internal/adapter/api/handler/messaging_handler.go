package handler

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ssanidhya0407/thriveup-messaging/internal/domain/entity"
	"github.com/ssanidhya0407/thriveup-messaging/internal/usecase"
	apperrors "github.com/ssanidhya0407/thriveup-messaging/pkg/errors"
	"github.com/ssanidhya0407/thriveup-messaging/pkg/response"
)

type MessagingHandler struct {
	messaging *usecase.MessagingUseCase
	previews  *usecase.PreviewService
}

func NewMessagingHandler(messaging *usecase.MessagingUseCase, previews *usecase.PreviewService) *MessagingHandler {
	return &MessagingHandler{
		messaging: messaging,
		previews:  previews,
	}
}

type createThreadRequest struct {
	CounterpartID string `json:"counterpart_id" validate:"required"`
}

type sendMessageRequest struct {
	Body string `json:"body" validate:"required"`
}

// CreateThread resolves or lazily creates the conversation with a
// counterpart. Safe to call repeatedly; both sides get the same thread.
func (h *MessagingHandler) CreateThread(c echo.Context) error {
	var req createThreadRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	viewerID := c.Get("uid").(string)

	thread, err := h.messaging.GetOrCreateThread(c.Request().Context(), viewerID, req.CounterpartID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, thread)
}

// GetMessages returns the ordered message log of a thread.
func (h *MessagingHandler) GetMessages(c echo.Context) error {
	viewerID := c.Get("uid").(string)
	threadID := c.Param("id")

	limit := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	descending := c.QueryParam("order") == "desc"

	messages, err := h.messaging.History(c.Request().Context(), viewerID, threadID, limit, descending)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

// SendMessage writes one outbound message. A partial outcome (message durable,
// preview stale) is reported as success with an attached SEND_PARTIAL notice
// so clients do not claim the message was lost.
func (h *MessagingHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	viewerID := c.Get("uid").(string)
	threadID := c.Param("id")

	message, err := h.messaging.Send(c.Request().Context(), viewerID, threadID, req.Body)
	if err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok && appErr.Code == "SEND_PARTIAL" {
			return response.Partial(c, message, appErr)
		}
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

type previewEntry struct {
	CounterpartID string          `json:"counterpart_id"`
	LastMessage   *entity.Message `json:"last_message,omitempty"`
}

// GetPreviews primes and reads the viewer's last-message cache for the given
// counterparts. A counterpart without history gets a nil preview, which the
// list renders as "tap to start a chat".
func (h *MessagingHandler) GetPreviews(c echo.Context) error {
	viewerID := c.Get("uid").(string)

	var counterparts []string
	if raw := c.QueryParam("counterparts"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				counterparts = append(counterparts, id)
			}
		}
	}

	cache := h.previews.CacheFor(viewerID)
	cache.Prime(c.Request().Context(), counterparts)

	if len(counterparts) == 0 {
		counterparts = cache.Counterparts()
	}

	entries := make([]previewEntry, 0, len(counterparts))
	for _, counterpartID := range counterparts {
		entry := previewEntry{CounterpartID: counterpartID}
		if message, ok := cache.Get(counterpartID); ok {
			entry.LastMessage = message
		}
		entries = append(entries, entry)
	}

	return response.Success(c, entries)
}
