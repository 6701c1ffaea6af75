package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ensemble-edge/conductor/ensemble"
)

// webhookRetrySchedule is spec §4.9's fixed backoff, indexed by retry
// number (0-based). Delays are not repeated: once every entry has been
// used, scheduleBackOff stops retrying even if the target allows more.
var webhookRetrySchedule = []time.Duration{
	1 * time.Second,
	5 * time.Second,
	30 * time.Second,
	120 * time.Second,
	300 * time.Second,
}

const defaultWebhookTimeout = 5 * time.Second

// scheduleBackOff replays webhookRetrySchedule, clamped to maxAttempts, so
// backoff.Retry reproduces the spec's literal delay sequence instead of a
// generic exponential curve.
type scheduleBackOff struct {
	schedule    []time.Duration
	maxAttempts int
	attempt     int
}

func (b *scheduleBackOff) NextBackOff() time.Duration {
	b.attempt++
	if b.attempt >= b.maxAttempts || b.attempt > len(b.schedule) {
		return backoff.Stop
	}
	return b.schedule[b.attempt-1]
}

// Reset rewinds the schedule; backoff.Retry calls it before the first attempt.
func (b *scheduleBackOff) Reset() { b.attempt = 0 }

func (m *Manager) sendWebhook(ctx context.Context, target ensemble.Notification, evt NotificationEvent) Result {
	start := time.Now()
	res := Result{Type: ensemble.NotificationWebhook, Target: target.URL, Event: evt.Event}

	body, err := json.Marshal(map[string]interface{}{
		"event":     evt.Event,
		"timestamp": evt.Timestamp.Unix(),
		"data":      evt.Data,
	})
	if err != nil {
		res.Error = err.Error()
		res.Duration = time.Since(start)
		return res
	}

	retries := target.Retries
	if retries <= 0 {
		retries = 3
	}
	maxAttempts := retries + 1

	timeout := target.Timeout
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}

	attempts := 0
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		statusCode, deliverErr := m.deliverWebhook(ctx, target, body, evt, attempts, timeout)
		res.StatusCode = statusCode
		if deliverErr == nil {
			return struct{}{}, nil
		}
		if statusCode > 0 && statusCode < 500 {
			return struct{}{}, backoff.Permanent(deliverErr)
		}
		return struct{}{}, deliverErr
	}, backoff.WithBackOff(&scheduleBackOff{schedule: webhookRetrySchedule, maxAttempts: maxAttempts}))

	res.Attempts = attempts
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Success = true
	return res
}

func (m *Manager) deliverWebhook(ctx context.Context, target ensemble.Notification, body []byte, evt NotificationEvent, attempt int, timeout time.Duration) (int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, target.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Conductor-Webhook/1.0")
	req.Header.Set("X-Conductor-Event", string(evt.Event))
	req.Header.Set("X-Conductor-Delivery-Attempt", strconv.Itoa(attempt))

	tsStr := strconv.FormatInt(evt.Timestamp.Unix(), 10)
	req.Header.Set("X-Conductor-Timestamp", tsStr)

	if target.Secret != "" {
		mac := hmac.New(sha256.New, []byte(target.Secret))
		mac.Write([]byte(tsStr + "." + string(body)))
		sig := hex.EncodeToString(mac.Sum(nil))
		req.Header.Set("X-Conductor-Signature", "sha256="+sig)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("webhook target responded %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}
