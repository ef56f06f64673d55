package instagram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "igcrawler/pkg/errors"
	"igcrawler/pkg/logger"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	doer, err := NewStdDoer(5*time.Second, "")
	require.NoError(t, err)

	client := NewClient(doer, Options{BaseURL: server.URL, Logger: logger.NewTestLogger()})
	return client, server
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantKind   errs.Kind
		wantMsg    string
	}{
		{name: "200 OK", statusCode: http.StatusOK},
		{name: "429 blocked", statusCode: http.StatusTooManyRequests, wantKind: errs.KindBlocked},
		{name: "400 rejected", statusCode: http.StatusBadRequest, body: `{"message":"Please wait a few minutes","status":"fail"}`, wantKind: errs.KindRejected, wantMsg: "Please wait a few minutes"},
		{name: "401 transient mid-crawl", statusCode: http.StatusUnauthorized, wantKind: errs.KindTransient},
		{name: "403 transient mid-crawl", statusCode: http.StatusForbidden, wantKind: errs.KindTransient},
		{name: "404 transient", statusCode: http.StatusNotFound, wantKind: errs.KindTransient},
		{name: "502 transient", statusCode: http.StatusBadGateway, wantKind: errs.KindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyStatus("test", &Response{StatusCode: tt.statusCode, Body: []byte(tt.body)})
			if tt.wantKind == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var e *errs.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.wantKind, e.Kind)
			assert.Equal(t, tt.statusCode, e.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, e.Message)
			}
		})
	}
}

func TestRequestsCarrySessionHeaders(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, AppID, r.Header.Get("X-Ig-App-Id"))
		assert.Equal(t, "csrf1", r.Header.Get("X-Csrftoken"))
		if c, err := r.Cookie("sessionid"); assert.NoError(t, err) {
			assert.Equal(t, "sess1", c.Value)
		}
		w.Write([]byte(`{"user":{"pk":42,"username":"alice","follower_count":10,"following_count":3}}`))
	}))
	client.UseSession(&Session{Username: "me", UserID: "7", SessionID: "sess1", CSRFToken: "csrf1"})

	p, err := client.ProfileByID(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, &Profile{ID: "42", Username: "alice", FollowerCount: 10, FolloweeCount: 3}, p)
}

func TestGetJSONParseFailureIsTransient(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))

	_, err := client.ProfileByID(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, errs.KindTransient, errs.KindOf(err))
	assert.Contains(t, err.Error(), "failed to parse JSON")
}

func TestNetworkFailureIsTransient(t *testing.T) {
	client, server := newTestClient(t, http.NotFoundHandler())
	server.Close()

	_, err := client.ProfileByUsername(context.Background(), "alice")
	require.Error(t, err)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.KindTransient, e.Kind)
	assert.Zero(t, e.Code)
}

func TestCancelledContextIsNotWrapped(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ProfileByID(ctx, "1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewDoer(t *testing.T) {
	d, err := NewDoer("std", time.Second, "")
	require.NoError(t, err)
	assert.IsType(t, &StdDoer{}, d)

	_, err = NewDoer("carrier-pigeon", time.Second, "")
	assert.Error(t, err)

	_, err = NewStdDoer(time.Second, "://bad")
	assert.Error(t, err)
}
