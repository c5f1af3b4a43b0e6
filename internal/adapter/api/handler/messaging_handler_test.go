package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssanidhya0407/thriveup-messaging/internal/adapter/api"
	"github.com/ssanidhya0407/thriveup-messaging/internal/domain/entity"
	"github.com/ssanidhya0407/thriveup-messaging/internal/domain/repository"
	"github.com/ssanidhya0407/thriveup-messaging/internal/infrastructure/live"
	"github.com/ssanidhya0407/thriveup-messaging/internal/usecase"
	"github.com/ssanidhya0407/thriveup-messaging/pkg/errors"
)

type fakeThreads struct {
	threads     map[string]*entity.ConversationThread
	failSummary bool
}

func (f *fakeThreads) GetByID(ctx context.Context, id string) (*entity.ConversationThread, error) {
	thread, ok := f.threads[id]
	if !ok {
		return nil, errors.NotFound("Thread", nil)
	}
	return thread, nil
}

func (f *fakeThreads) Create(ctx context.Context, thread *entity.ConversationThread) error {
	if _, ok := f.threads[thread.ID]; !ok {
		f.threads[thread.ID] = thread
	}
	return nil
}

func (f *fakeThreads) UpdateLastMessage(ctx context.Context, threadID, summary string, at time.Time) error {
	if f.failSummary {
		return errors.Store("summary write refused", nil)
	}
	f.threads[threadID].LastMessage = summary
	return nil
}

type fakeUsers struct{}

func (fakeUsers) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return &entity.User{ID: id, DisplayName: id}, nil
}

type fakeGateway struct {
	appended []*entity.Message
}

func (f *fakeGateway) Append(ctx context.Context, threadID, senderID, body string) (*entity.Message, error) {
	message := &entity.Message{ID: "m1", ThreadID: threadID, SenderID: senderID, Body: body, SentAt: time.Now()}
	f.appended = append(f.appended, message)
	return message, nil
}

func (f *fakeGateway) FetchOrdered(ctx context.Context, threadID string, limit int, descending bool) ([]*entity.Message, error) {
	return f.appended, nil
}

func (f *fakeGateway) Subscribe(ctx context.Context, threadID string, onUpdate repository.UpdateFunc) (repository.Subscription, error) {
	return noopSubscription{}, nil
}

type noopSubscription struct{}

func (noopSubscription) Cancel() {}

func setupHandler(t *testing.T) (*MessagingHandler, *fakeThreads, *fakeGateway) {
	t.Helper()
	threads := &fakeThreads{threads: make(map[string]*entity.ConversationThread)}
	gateway := &fakeGateway{}
	messaging := usecase.NewMessagingUseCase(threads, fakeUsers{}, gateway)
	previews := usecase.NewPreviewService(gateway, live.NewManager(gateway))
	return NewMessagingHandler(messaging, previews), threads, gateway
}

func newContext(t *testing.T, method, target, body, uid string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = api.NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("uid", uid)
	return c, rec
}

func TestCreateThreadReturnsCreated(t *testing.T) {
	h, _, _ := setupHandler(t)

	c, rec := newContext(t, http.MethodPost, "/v1/threads", `{"counterpart_id":"bob"}`, "alice")

	require.NoError(t, h.CreateThread(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice_bob")
}

func TestCreateThreadRequiresCounterpart(t *testing.T) {
	h, _, _ := setupHandler(t)

	c, rec := newContext(t, http.MethodPost, "/v1/threads", `{}`, "alice")

	require.NoError(t, h.CreateThread(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestSendMessageRejectsBlankBody(t *testing.T) {
	h, threads, gateway := setupHandler(t)
	threads.threads["alice_bob"] = &entity.ConversationThread{ID: "alice_bob", ParticipantIDs: []string{"alice", "bob"}}

	c, rec := newContext(t, http.MethodPost, "/v1/threads/alice_bob/messages", `{"body":""}`, "alice")
	c.SetParamNames("id")
	c.SetParamValues("alice_bob")

	require.NoError(t, h.SendMessage(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, gateway.appended)
}

func TestSendMessagePartialOutcomeStillSucceeds(t *testing.T) {
	h, threads, gateway := setupHandler(t)
	threads.threads["alice_bob"] = &entity.ConversationThread{ID: "alice_bob", ParticipantIDs: []string{"alice", "bob"}}
	threads.failSummary = true

	c, rec := newContext(t, http.MethodPost, "/v1/threads/alice_bob/messages", `{"body":"hello"}`, "alice")
	c.SetParamNames("id")
	c.SetParamValues("alice_bob")

	require.NoError(t, h.SendMessage(c))
	// The message is durable, so the client must not see a failure.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SEND_PARTIAL")
	assert.Len(t, gateway.appended, 1)
}

func TestGetMessagesForbiddenForOutsider(t *testing.T) {
	h, threads, _ := setupHandler(t)
	threads.threads["alice_bob"] = &entity.ConversationThread{ID: "alice_bob", ParticipantIDs: []string{"alice", "bob"}}

	c, rec := newContext(t, http.MethodGet, "/v1/threads/alice_bob/messages", "", "mallory")
	c.SetParamNames("id")
	c.SetParamValues("alice_bob")

	require.NoError(t, h.GetMessages(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
