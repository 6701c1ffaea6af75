package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ensemble-edge/conductor/ensemble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookDeliversWithValidSignature(t *testing.T) {
	var gotSig, gotBody, gotEvent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Conductor-Signature")
		gotEvent = r.Header.Get("X-Conductor-Event")
		body := make([]byte, r.ContentLength)
		r.Body.Read(body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	target := ensemble.Notification{
		Type:    ensemble.NotificationWebhook,
		Events:  []ensemble.LifecycleEvent{ensemble.EventExecutionCompleted},
		URL:     srv.URL,
		Secret:  "shh",
		Retries: 1,
	}
	mgr := New([]ensemble.Notification{target}, nil)

	results := mgr.EmitExecutionCompleted(context.Background(), "demo", map[string]interface{}{"foo": "bar"})
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, "execution.completed", gotEvent)

	ts := extractTimestamp(t, gotBody)
	mac := hmac.New(sha256.New, []byte("shh"))
	mac.Write([]byte(strconv.FormatInt(ts, 10) + "." + gotBody))
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	assert.Equal(t, want, gotSig)
}

func extractTimestamp(t *testing.T, body string) int64 {
	t.Helper()
	var decoded struct {
		Timestamp int64 `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &decoded))
	return decoded.Timestamp
}

func TestWebhookRetriesOnServerErrorThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	webhookRetrySchedule = []time.Duration{time.Millisecond}
	defer func() { webhookRetrySchedule = []time.Duration{time.Second, 5 * time.Second, 30 * time.Second, 120 * time.Second, 300 * time.Second} }()

	target := ensemble.Notification{
		Type:    ensemble.NotificationWebhook,
		Events:  []ensemble.LifecycleEvent{ensemble.EventExecutionFailed},
		URL:     srv.URL,
		Retries: 3,
	}
	mgr := New([]ensemble.Notification{target}, nil)
	results := mgr.EmitExecutionFailed(context.Background(), "demo", nil)

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, 2, results[0].Attempts)
}

func TestWebhookPermanentFailureOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	target := ensemble.Notification{
		Type:    ensemble.NotificationWebhook,
		Events:  []ensemble.LifecycleEvent{ensemble.EventExecutionFailed},
		URL:     srv.URL,
		Retries: 3,
	}
	mgr := New([]ensemble.Notification{target}, nil)
	results := mgr.EmitExecutionFailed(context.Background(), "demo", nil)

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "4xx must not retry")
}

func TestEmitSkipsNonSubscribedTargets(t *testing.T) {
	calls := int32(0)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	target := ensemble.Notification{
		Type:   ensemble.NotificationWebhook,
		Events: []ensemble.LifecycleEvent{ensemble.EventExecutionStarted},
		URL:    srv.URL,
	}
	mgr := New([]ensemble.Notification{target}, nil)
	results := mgr.EmitExecutionCompleted(context.Background(), "demo", nil)

	assert.Len(t, results, 0)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestEmailPayloadShapeAndHeaderColor(t *testing.T) {
	var decoded mailPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&decoded))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	original := mailAPIURL
	mailAPIURL = srv.URL
	defer func() { mailAPIURL = original }()

	target := ensemble.Notification{
		Type:   ensemble.NotificationEmail,
		Events: []ensemble.LifecycleEvent{ensemble.EventExecutionFailed},
		To:     []string{"oncall@example.com"},
	}
	mgr := New([]ensemble.Notification{target}, nil)
	results := mgr.EmitExecutionFailed(context.Background(), "demo", nil)

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	require.Len(t, decoded.Personalizations, 1)
	assert.Equal(t, "oncall@example.com", decoded.Personalizations[0].To[0].Email)
	assert.Equal(t, "Conductor Notifications", decoded.From.Name)
	require.Len(t, decoded.Content, 2)
	assert.Contains(t, decoded.Content[1].Value, "#c62828")
}

func TestDispatchFailsGracefullyForUnknownType(t *testing.T) {
	mgr := &Manager{targets: []ensemble.Notification{{
		Type:   ensemble.NotificationType("carrier-pigeon"),
		Events: []ensemble.LifecycleEvent{ensemble.EventExecutionStarted},
	}}}
	results := mgr.emit(context.Background(), "demo", ensemble.EventExecutionStarted, nil)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
}
