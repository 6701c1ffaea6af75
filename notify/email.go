package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ensemble-edge/conductor/ensemble"
)

// defaultMailAPIURL is the MailChannels transactional-send endpoint named
// in spec §6's email payload example.
const defaultMailAPIURL = "https://api.mailchannels.net/tx/v1/send"

var mailAPIURL = defaultMailAPIURL

type mailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type mailPersonalization struct {
	To []mailAddress `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailPayload struct {
	Personalizations []mailPersonalization `json:"personalizations"`
	From             mailAddress           `json:"from"`
	Subject          string                `json:"subject"`
	Content          []mailContent         `json:"content"`
}

var headerColor = map[ensemble.LifecycleEvent]string{
	ensemble.EventExecutionCompleted: "#2e7d32", // green
	ensemble.EventExecutionFailed:    "#c62828", // red
	ensemble.EventExecutionTimeout:   "#c62828",
}

func (m *Manager) sendEmail(ctx context.Context, target ensemble.Notification, evt NotificationEvent) Result {
	start := time.Now()
	res := Result{Type: ensemble.NotificationEmail, Target: fmt.Sprintf("%v", target.To), Event: evt.Event}

	subject := target.Subject
	if subject == "" {
		subject = fmt.Sprintf("Conductor: %s", evt.Event)
	}

	from := target.From
	if from == "" {
		from = "notifications@conductor.local"
	}

	to := make([]mailAddress, 0, len(target.To))
	for _, addr := range target.To {
		to = append(to, mailAddress{Email: addr})
	}

	payload := mailPayload{
		Personalizations: []mailPersonalization{{To: to}},
		From:             mailAddress{Email: from, Name: "Conductor Notifications"},
		Subject:          subject,
		Content: []mailContent{
			{Type: "text/plain", Value: plainTextBody(evt)},
			{Type: "text/html", Value: htmlBody(evt)},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		res.Error = err.Error()
		res.Duration = time.Since(start)
		return res
	}

	reqCtx, cancel := context.WithTimeout(ctx, defaultWebhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, mailAPIURL, bytes.NewReader(body))
	if err != nil {
		res.Error = err.Error()
		res.Duration = time.Since(start)
		return res
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Conductor-Webhook/1.0")

	res.Attempts = 1
	resp, err := m.httpClient.Do(req)
	if err != nil {
		res.Error = err.Error()
		res.Duration = time.Since(start)
		return res
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	res.StatusCode = resp.StatusCode
	res.Duration = time.Since(start)

	if resp.StatusCode >= 400 {
		res.Error = fmt.Sprintf("mail api responded %d", resp.StatusCode)
		return res
	}
	res.Success = true
	return res
}

func plainTextBody(evt NotificationEvent) string {
	return fmt.Sprintf("Conductor event: %s\nEnsemble: %v\nTimestamp: %s\n", evt.Event, evt.Data["ensemble"], evt.Timestamp.Format(time.RFC3339))
}

func htmlBody(evt NotificationEvent) string {
	color := headerColor[evt.Event]
	if color == "" {
		color = "#1565c0" // blue
	}
	return fmt.Sprintf(
		`<html><body><h2 style="color:%s">Conductor: %s</h2><p>Ensemble: %v</p><p>Timestamp: %s</p></body></html>`,
		color, evt.Event, evt.Data["ensemble"], evt.Timestamp.Format(time.RFC3339))
}
