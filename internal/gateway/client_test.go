package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeEnvelope(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{"success": status < 300}
	if data != nil {
		body["data"] = data
	}
	if message != "" {
		body["message"] = message
	}
	_ = json.NewEncoder(w).Encode(body)
}

// newTestClient starts an httptest server around r and returns a client
// pointed at it. token is what the credential source reports.
func newTestClient(t *testing.T, r http.Handler, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		BaseURL:    srv.URL + "/api/",
		Timeout:    2 * time.Second,
		UserAgent:  "qaforum-test",
		Registerer: prometheus.NewRegistry(),
		Credentials: CredentialFunc(func() (string, bool) {
			return token, token != ""
		}),
	}, testLogger())
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNew_RejectsRelativeBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "/api"}, testLogger())
	assert.Error(t, err)
}

func TestHeaders_BearerAndRequestID(t *testing.T) {
	var got http.Header
	r := chi.NewRouter()
	r.Get("/api/auth/profile", func(w http.ResponseWriter, req *http.Request) {
		got = req.Header.Clone()
		writeEnvelope(w, http.StatusOK, map[string]any{"user": model.User{ID: 1, Username: "john"}}, "")
	})

	c := newTestClient(t, r, "tok-123")
	user, err := c.Profile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "Bearer tok-123", got.Get("Authorization"))
	assert.NotEmpty(t, got.Get("X-Request-ID"))
	assert.Equal(t, "qaforum-test", got.Get("User-Agent"))
}

func TestHeaders_AnonymousSendsNoAuthorization(t *testing.T) {
	var auth string
	r := chi.NewRouter()
	r.Get("/api/questions", func(w http.ResponseWriter, req *http.Request) {
		auth = req.Header.Get("Authorization")
		writeEnvelope(w, http.StatusOK, map[string]any{"questions": []model.Question{}}, "")
	})

	c := newTestClient(t, r, "")
	_, err := c.ListQuestions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, auth)
}

func TestListQuestions_NullListIsEmpty(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/questions", func(w http.ResponseWriter, req *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{"questions": nil}, "")
	})

	c := newTestClient(t, r, "")
	qs, err := c.ListQuestions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, qs)
	assert.Empty(t, qs)
}

func TestCreateQuestion_SendsBodyAndDecodes(t *testing.T) {
	var sent model.QuestionInput
	r := chi.NewRouter()
	r.Post("/api/questions", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&sent))
		writeEnvelope(w, http.StatusCreated, map[string]any{
			"question": model.Question{ID: 9, Title: sent.Title, Tags: sent.Tags},
		}, "")
	})

	c := newTestClient(t, r, "tok")
	q, err := c.CreateQuestion(context.Background(), model.QuestionInput{
		Title:       "How to center a div in CSS?",
		Description: "I have tried margin auto and flexbox without luck.",
		Tags:        []string{"css"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), q.ID)
	assert.Equal(t, []string{"css"}, sent.Tags)
}

func TestVoteAndAccept_Paths(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	record := func(w http.ResponseWriter, req *http.Request) {
		mu.Lock()
		calls = append(calls, req.Method+" "+req.URL.Path)
		mu.Unlock()
		writeEnvelope(w, http.StatusOK, nil, "")
	}
	r := chi.NewRouter()
	r.Post("/api/questions/{id}/vote", func(w http.ResponseWriter, req *http.Request) {
		var body voteBody
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, model.VoteDown, body.VoteType)
		record(w, req)
	})
	r.Post("/api/answers/{id}/vote", record)
	r.Put("/api/questions/{qid}/accept/{aid}", record)

	c := newTestClient(t, r, "tok")
	ctx := context.Background()
	require.NoError(t, c.VoteQuestion(ctx, 3, model.VoteDown))
	require.NoError(t, c.VoteAnswer(ctx, 5, model.VoteUp))
	require.NoError(t, c.AcceptAnswer(ctx, 42, 7))

	assert.Equal(t, []string{
		"POST /api/questions/3/vote",
		"POST /api/answers/5/vote",
		"PUT /api/questions/42/accept/7",
	}, calls)
}

func TestStatusOnlyCall_SuccessFalseIsAnError(t *testing.T) {
	r := chi.NewRouter()
	r.Put("/api/notifications/{id}/read", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"message":"Notification already read"}`))
	})
	r.Put("/api/notifications/user/{userId}/read-all", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	c := newTestClient(t, r, "tok")
	ctx := context.Background()

	err := c.MarkNotificationRead(ctx, 3)
	require.Error(t, err)
	assert.Equal(t, apperror.KindUnknown, apperror.KindOf(err))
	assert.Equal(t, "Notification already read", apperror.MessageOf(err, ""))

	// an empty 2xx body is still a success
	assert.NoError(t, c.MarkAllNotificationsRead(ctx, 1))
}

func TestUnreadCount(t *testing.T) {
	var path string
	r := chi.NewRouter()
	r.Get("/api/notifications/user/{userId}/unread-count", func(w http.ResponseWriter, req *http.Request) {
		path = req.URL.Path
		writeEnvelope(w, http.StatusOK, map[string]any{"count": 3}, "")
	})

	c := newTestClient(t, r, "tok")
	n, err := c.UnreadCount(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "/api/notifications/user/7/unread-count", path)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind apperror.Kind
		wantMsg  string
	}{
		{"unauthorized with message", 401, `{"success":false,"message":"Token expired"}`, apperror.KindUnauthorized, "Token expired"},
		{"validation", 400, `{"success":false,"message":"Title is required"}`, apperror.KindValidation, "Title is required"},
		{"not found", 404, `{"success":false,"error":"Question not found"}`, apperror.KindNotFound, "Question not found"},
		{"server without body", 500, ``, apperror.KindServer, "server error (500)"},
		{"server with html body", 502, `<html>bad gateway</html>`, apperror.KindServer, "server error (502)"},
		{"ok but garbage", 200, `not json`, apperror.KindUnknown, "could not decode response"},
		{"ok but no data", 200, `{"success":true}`, apperror.KindUnknown, "response is missing data"},
		{"ok but success false", 200, `{"success":false,"message":"Question is locked"}`, apperror.KindUnknown, "Question is locked"},
		{"ok but success false without message", 200, `{"success":false}`, apperror.KindUnknown, "the server reported a failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Get("/api/questions/{id}", func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			c := newTestClient(t, r, "tok")

			_, err := c.GetQuestion(context.Background(), 1)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperror.KindOf(err))
			assert.Equal(t, tt.wantMsg, apperror.MessageOf(err, ""))
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close() // nothing listens any more

	c, err := New(Config{BaseURL: url + "/api", Timeout: time.Second}, testLogger())
	require.NoError(t, err)

	_, err = c.ListQuestions(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNetwork))
	assert.Equal(t, apperror.KindNetwork, apperror.KindOf(err))
}

func TestLogout_FireAndForgetUsesPinnedToken(t *testing.T) {
	got := make(chan string, 1)
	r := chi.NewRouter()
	r.Post("/api/auth/logout", func(w http.ResponseWriter, req *http.Request) {
		got <- req.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	})

	// the live credential source is already empty, as it is after logout
	c := newTestClient(t, r, "")
	c.Logout("old-token")
	c.Close()

	select {
	case auth := <-got:
		assert.Equal(t, "Bearer old-token", auth)
	default:
		t.Fatal("logout request was not sent before Close returned")
	}
}

func TestLogout_EmptyTokenSendsNothing(t *testing.T) {
	hit := false
	r := chi.NewRouter()
	r.Post("/api/auth/logout", func(w http.ResponseWriter, req *http.Request) {
		hit = true
	})

	c := newTestClient(t, r, "")
	c.Logout("")
	c.Close()
	assert.False(t, hit)
}

func TestMetrics_CountOutcomes(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/answers/question/{id}", func(w http.ResponseWriter, req *http.Request) {
		if chi.URLParam(req, "id") == "1" {
			writeEnvelope(w, http.StatusOK, map[string]any{"answers": []model.Answer{{ID: 1}}}, "")
			return
		}
		writeEnvelope(w, http.StatusInternalServerError, nil, "boom")
	})

	c := newTestClient(t, r, "")
	ctx := context.Background()
	_, err := c.ListAnswers(ctx, 1)
	require.NoError(t, err)
	_, err = c.ListAnswers(ctx, 2)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.requests.WithLabelValues("answers.list", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.requests.WithLabelValues("answers.list", "server")))
}
