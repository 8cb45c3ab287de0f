package telegram_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/faxinabot/internal/moderation"
	"github.com/edgard/faxinabot/internal/telegram"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want telegram.Outcome
	}{
		{name: "nil", err: nil, want: telegram.OutcomeOK},
		{name: "forbidden", err: fmt.Errorf("%w, bot was kicked", bot.ErrorForbidden), want: telegram.OutcomeDenied},
		{name: "bad request", err: fmt.Errorf("%w, message to delete not found", bot.ErrorBadRequest), want: telegram.OutcomeDenied},
		{name: "not found", err: bot.ErrorNotFound, want: telegram.OutcomeDenied},
		{name: "unauthorized", err: bot.ErrorUnauthorized, want: telegram.OutcomeDenied},
		{name: "deadline", err: fmt.Errorf("request: %w", context.DeadlineExceeded), want: telegram.OutcomeNetworkError},
		{name: "canceled", err: context.Canceled, want: telegram.OutcomeNetworkError},
		{name: "transport", err: errors.New("dial tcp: connection refused"), want: telegram.OutcomeNetworkError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := telegram.Classify(tt.err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want == telegram.OutcomeOK, got.OK())
		})
	}
}

func TestOutcomeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ok", telegram.OutcomeOK.String())
	assert.Equal(t, "denied", telegram.OutcomeDenied.String())
	assert.Equal(t, "network_error", telegram.OutcomeNetworkError.String())
}

// fakeBotAPI answers Bot API methods with canned JSON bodies.
type fakeBotAPI struct {
	mu        sync.Mutex
	responses map[string]string
	calls     []string
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

	f.mu.Lock()
	f.calls = append(f.calls, method)
	body, ok := f.responses[method]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if strings.Contains(body, `"error_code":403`) {
		w.WriteHeader(http.StatusForbidden)
	} else if strings.Contains(body, `"error_code":400`) {
		w.WriteHeader(http.StatusBadRequest)
	}
	_, _ = w.Write([]byte(body))
}

func newTestClient(t *testing.T, responses map[string]string) (*telegram.BotClient, *fakeBotAPI) {
	t.Helper()

	api := &fakeBotAPI{responses: responses}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	b, err := bot.New("123456:test-token", bot.WithServerURL(srv.URL), bot.WithSkipGetMe())
	require.NoError(t, err)

	return telegram.NewBotClient(b, nil, nil, 5*time.Second), api
}

func TestBotClient_GetMemberRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		response    string
		wantRole    moderation.Role
		wantOutcome telegram.Outcome
	}{
		{
			name:        "creator",
			response:    `{"ok":true,"result":{"status":"creator","user":{"id":7,"is_bot":false,"first_name":"Owner"},"is_anonymous":false}}`,
			wantRole:    moderation.RoleCreator,
			wantOutcome: telegram.OutcomeOK,
		},
		{
			name:        "administrator",
			response:    `{"ok":true,"result":{"status":"administrator","user":{"id":7,"is_bot":false,"first_name":"Admin"},"can_be_edited":false}}`,
			wantRole:    moderation.RoleAdministrator,
			wantOutcome: telegram.OutcomeOK,
		},
		{
			name:        "member",
			response:    `{"ok":true,"result":{"status":"member","user":{"id":7,"is_bot":false,"first_name":"User"}}}`,
			wantRole:    moderation.RoleMember,
			wantOutcome: telegram.OutcomeOK,
		},
		{
			name:        "lookup rejected",
			response:    `{"ok":false,"error_code":400,"description":"Bad Request: user not found"}`,
			wantRole:    moderation.RoleUnknown,
			wantOutcome: telegram.OutcomeDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client, _ := newTestClient(t, map[string]string{"getChatMember": tt.response})

			role, outcome := client.GetMemberRole(context.Background(), -100, 7)
			assert.Equal(t, tt.wantOutcome, outcome)
			assert.Equal(t, tt.wantRole, role)
		})
	}
}

func TestBotClient_Actions(t *testing.T) {
	t.Parallel()

	client, api := newTestClient(t, map[string]string{
		"deleteMessage":  `{"ok":false,"error_code":400,"description":"Bad Request: message to delete not found"}`,
		"pinChatMessage": `{"ok":false,"error_code":403,"description":"Forbidden: not enough rights"}`,
		"sendMessage":    `{"ok":true,"result":{"message_id":55,"date":1700000000,"chat":{"id":-100,"type":"supergroup"}}}`,
	})
	ctx := context.Background()

	assert.Equal(t, telegram.OutcomeDenied, client.DeleteMessage(ctx, -100, 10))
	assert.Equal(t, telegram.OutcomeDenied, client.PinMessage(ctx, -100, 11, true))
	assert.Equal(t, telegram.OutcomeOK, client.SendMessage(ctx, -100, "hello"))

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, []string{"deleteMessage", "pinChatMessage", "sendMessage"}, api.calls)
}

func TestBotClient_Timeout(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(block)
		srv.Close()
	})

	b, err := bot.New("123456:test-token", bot.WithServerURL(srv.URL), bot.WithSkipGetMe())
	require.NoError(t, err)
	client := telegram.NewBotClient(b, nil, nil, 50*time.Millisecond)

	start := time.Now()
	outcome := client.DeleteMessage(context.Background(), -1, 1)
	assert.Equal(t, telegram.OutcomeNetworkError, outcome)
	assert.Less(t, time.Since(start), 5*time.Second)
}
