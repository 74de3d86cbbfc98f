package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"giveaway_bot/internal/events"
	"giveaway_bot/internal/middleware"
	"giveaway_bot/internal/mocks"
	"giveaway_bot/internal/model"
	"giveaway_bot/internal/service"
	"giveaway_bot/internal/telegram"
	"giveaway_bot/pkg/auth"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	adminID      = int64(999)
	regularID    = int64(10)
	testSecret   = "s3cret"
	webhookRoute = "/webhook"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func authHeader(telegramID int64) string {
	user := url.QueryEscape(fmt.Sprintf(`{"id":%d}`, telegramID))
	return "Telegram auth_date=1700000000&user=" + user
}

type dispatcherStub struct {
	mu      sync.Mutex
	updates []tgbotapi.Update
	ctxErr  error
}

func (d *dispatcherStub) Dispatch(ctx context.Context, update tgbotapi.Update) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updates = append(d.updates, update)
	d.ctxErr = ctx.Err()
}

type pingerStub struct {
	err error
}

func (p pingerStub) Ping(ctx context.Context) error {
	return p.err
}

type testServer struct {
	router   *gin.Engine
	admin    *mocks.MockAdminService
	contacts *mocks.MockContactService
	hub      *events.Hub
	bot      *dispatcherStub
}

func newTestServer(db Pinger) *testServer {
	ts := &testServer{
		router:   gin.New(),
		admin:    &mocks.MockAdminService{},
		contacts: &mocks.MockContactService{},
		hub:      events.NewHub(8),
		bot:      &dispatcherStub{},
	}

	NewWebhookRoutes(ts.router, ts.bot, testSecret)
	NewHealthRoutes(ts.router, db, prometheus.NewRegistry())
	NewAdminRoutes(ts.router.Group("/api/v1"), ts.admin, ts.contacts, ts.hub,
		auth.NewTelegramAuth("token", true), middleware.NewAuthorization([]int64{adminID}))

	return ts
}

func (ts *testServer) do(method, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func TestWebhook(t *testing.T) {
	tests := []struct {
		name           string
		secret         string
		body           string
		expectedStatus int
		dispatched     bool
	}{
		{
			name:           "Valid update",
			secret:         testSecret,
			body:           `{"update_id":5,"message":{"message_id":1,"text":"/start","chat":{"id":10,"type":"private"},"date":1700000000}}`,
			expectedStatus: http.StatusOK,
			dispatched:     true,
		},
		{name: "Wrong secret", secret: "nope", body: `{"update_id":5}`, expectedStatus: http.StatusUnauthorized},
		{name: "Missing secret", body: `{"update_id":5}`, expectedStatus: http.StatusUnauthorized},
		{name: "Broken body", secret: testSecret, body: `{"update_id":`, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(pingerStub{})

			req := httptest.NewRequest(http.MethodPost, webhookRoute, strings.NewReader(tt.body))
			if tt.secret != "" {
				req.Header.Set(telegram.SecretHeader, tt.secret)
			}
			w := httptest.NewRecorder()
			ts.router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.dispatched {
				require.Len(t, ts.bot.updates, 1)
				assert.Equal(t, 5, ts.bot.updates[0].UpdateID)
				assert.Equal(t, "/start", ts.bot.updates[0].Message.Text)
				assert.NoError(t, ts.bot.ctxErr)
			} else {
				assert.Empty(t, ts.bot.updates)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		db             Pinger
		expectedStatus int
	}{
		{name: "Liveness", path: "/healthz", db: pingerStub{}, expectedStatus: http.StatusOK},
		{name: "Ready", path: "/readyz", db: pingerStub{}, expectedStatus: http.StatusOK},
		{name: "Database down", path: "/readyz", db: pingerStub{err: errors.New("refused")}, expectedStatus: http.StatusServiceUnavailable},
		{name: "Metrics", path: "/metrics", db: pingerStub{}, expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestServer(tt.db).do(http.MethodGet, tt.path, "")
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestAdminRoutes_Access(t *testing.T) {
	tests := []struct {
		name           string
		authorization  string
		expectedStatus int
	}{
		{name: "No credentials", expectedStatus: http.StatusUnauthorized},
		{name: "Regular user", authorization: authHeader(regularID), expectedStatus: http.StatusForbidden},
		{name: "Admin", authorization: authHeader(adminID), expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(pingerStub{})
			ts.admin.On("CollectStats", mock.Anything).Return(&model.Stats{TotalUsers: 1}, nil)

			w := ts.do(http.MethodGet, "/api/v1/admin/stats", tt.authorization)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestAdminRoutes_GetStats(t *testing.T) {
	ts := newTestServer(pingerStub{})
	ts.admin.On("CollectStats", mock.Anything).
		Return(&model.Stats{TotalUsers: 4, TotalSubscribed: 3, TotalParticipants: 1, TotalConfirmedReferrals: 2}, nil)

	w := ts.do(http.MethodGet, "/api/v1/admin/stats", authHeader(adminID))
	require.Equal(t, http.StatusOK, w.Code)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, StatsResponse{
		TotalUsers:              4,
		TotalSubscribed:         3,
		TotalParticipants:       1,
		TotalConfirmedReferrals: 2,
	}, resp)
}

func TestAdminRoutes_ExportUsers(t *testing.T) {
	tests := []struct {
		name           string
		data           []byte
		err            error
		expectedStatus int
	}{
		{name: "CSV", data: []byte("telegram_id\n1\n"), expectedStatus: http.StatusOK},
		{name: "Storage failure", err: errors.New("timeout"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(pingerStub{})
			ts.admin.On("ExportUsersCSV", mock.Anything).Return(tt.data, tt.err)

			w := ts.do(http.MethodGet, "/api/v1/admin/export", authHeader(adminID))
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.err == nil {
				assert.Equal(t, string(tt.data), w.Body.String())
				assert.Contains(t, w.Header().Get("Content-Disposition"), "giveaway_export_")
				assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
			}
		})
	}
}

func TestAdminRoutes_GetUser(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		mockSetup      func(contacts *mocks.MockContactService)
		expectedStatus int
	}{
		{
			name: "Found",
			path: "/api/v1/admin/users/42",
			mockSetup: func(contacts *mocks.MockContactService) {
				contacts.On("GetUser", mock.Anything, int64(42)).
					Return(&model.User{TelegramID: 42, Username: "ivan", IsParticipant: true, ReferralsConfirmed: 1}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Unknown",
			path: "/api/v1/admin/users/43",
			mockSetup: func(contacts *mocks.MockContactService) {
				contacts.On("GetUser", mock.Anything, int64(43)).Return(nil, service.ErrUserNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Bad id",
			path:           "/api/v1/admin/users/abc",
			mockSetup:      func(contacts *mocks.MockContactService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(pingerStub{})
			tt.mockSetup(ts.contacts)

			w := ts.do(http.MethodGet, tt.path, authHeader(adminID))
			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				var resp UserResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, int64(42), resp.TelegramID)
				assert.True(t, resp.IsParticipant)
			}
		})
	}
}

func TestAdminRoutes_StreamEvents(t *testing.T) {
	ts := newTestServer(pingerStub{})
	server := httptest.NewServer(ts.router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/admin/events"
	header := http.Header{}
	header.Set("Authorization", authHeader(adminID))

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return ts.hub.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	ts.hub.Publish(events.NewMessage(events.TypeReferralConfirmed, map[string]any{"referrer_id": 1}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg events.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, events.TypeReferralConfirmed, msg.Type)
	assert.NotEmpty(t, msg.ID)

	conn.Close()
	assert.Eventually(t, func() bool { return ts.hub.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}

func TestAdminRoutes_StreamEventsRejectsNonAdmins(t *testing.T) {
	ts := newTestServer(pingerStub{})
	server := httptest.NewServer(ts.router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/admin/events"
	header := http.Header{}
	header.Set("Authorization", authHeader(regularID))

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
