// Package notify implements the lifecycle-event fan-out of spec §4.9: for
// a given event, every matching webhook/email target is dispatched
// concurrently, and no individual target failure is ever propagated back
// into the run — only the returned result slice and logs see it.
package notify

import (
	"context"
	"net/http"
	"time"

	"github.com/ensemble-edge/conductor/corelog"
	"github.com/ensemble-edge/conductor/ensemble"
	"github.com/ensemble-edge/conductor/telemetry"
)

// NotificationEvent is the envelope built for every lifecycle emission
// (spec §3, §4.9).
type NotificationEvent struct {
	Event     ensemble.LifecycleEvent
	Timestamp time.Time
	Data      map[string]interface{}
}

// Result is one target's delivery outcome (spec §4.9).
type Result struct {
	Success    bool
	Type       ensemble.NotificationType
	Target     string
	Event      ensemble.LifecycleEvent
	Duration   time.Duration
	Error      string
	StatusCode int
	Attempts   int
}

// Manager fans a lifecycle event out to every ensemble.Notification
// subscribed to it.
type Manager struct {
	targets    []ensemble.Notification
	httpClient *http.Client
	logger     corelog.Logger
}

// New constructs a Manager for one ensemble's notification list.
func New(targets []ensemble.Notification, logger corelog.Logger) *Manager {
	return &Manager{
		targets:    targets,
		httpClient: telemetry.NewTracedHTTPClient(&http.Client{}),
		logger:     corelog.SafeComponent(logger, "conductor/notify"),
	}
}

func (m *Manager) emit(ctx context.Context, ensembleName string, event ensemble.LifecycleEvent, payload map[string]interface{}) []Result {
	data := map[string]interface{}{"ensemble": ensembleName}
	for k, v := range payload {
		data[k] = v
	}
	evt := NotificationEvent{Event: event, Timestamp: time.Now(), Data: data}

	var matching []ensemble.Notification
	for _, t := range m.targets {
		if t.Subscribes(event) {
			matching = append(matching, t)
		}
	}
	if len(matching) == 0 {
		return nil
	}

	results := make(chan Result, len(matching))
	for _, target := range matching {
		go m.dispatch(ctx, target, evt, results)
	}

	out := make([]Result, 0, len(matching))
	for range matching {
		out = append(out, <-results)
	}
	return out
}

func (m *Manager) dispatch(ctx context.Context, target ensemble.Notification, evt NotificationEvent, results chan<- Result) {
	defer func() {
		if r := recover(); r != nil {
			results <- Result{Success: false, Type: target.Type, Event: evt.Event, Error: "notification target panicked"}
		}
	}()

	switch target.Type {
	case ensemble.NotificationWebhook:
		results <- m.sendWebhook(ctx, target, evt)
	case ensemble.NotificationEmail:
		results <- m.sendEmail(ctx, target, evt)
	default:
		results <- Result{Success: false, Type: target.Type, Event: evt.Event, Error: "unknown notification type"}
	}
}

// EmitExecutionStarted emits execution.started (spec §4.9).
func (m *Manager) EmitExecutionStarted(ctx context.Context, ensembleName string, payload map[string]interface{}) []Result {
	return m.emit(ctx, ensembleName, ensemble.EventExecutionStarted, payload)
}

// EmitExecutionCompleted emits execution.completed.
func (m *Manager) EmitExecutionCompleted(ctx context.Context, ensembleName string, payload map[string]interface{}) []Result {
	return m.emit(ctx, ensembleName, ensemble.EventExecutionCompleted, payload)
}

// EmitExecutionFailed emits execution.failed.
func (m *Manager) EmitExecutionFailed(ctx context.Context, ensembleName string, payload map[string]interface{}) []Result {
	return m.emit(ctx, ensembleName, ensemble.EventExecutionFailed, payload)
}

// EmitExecutionTimeout emits execution.timeout.
func (m *Manager) EmitExecutionTimeout(ctx context.Context, ensembleName string, payload map[string]interface{}) []Result {
	return m.emit(ctx, ensembleName, ensemble.EventExecutionTimeout, payload)
}

// EmitAgentCompleted emits agent.completed.
func (m *Manager) EmitAgentCompleted(ctx context.Context, ensembleName string, payload map[string]interface{}) []Result {
	return m.emit(ctx, ensembleName, ensemble.EventAgentCompleted, payload)
}

// EmitStateUpdated emits state.updated.
func (m *Manager) EmitStateUpdated(ctx context.Context, ensembleName string, payload map[string]interface{}) []Result {
	return m.emit(ctx, ensembleName, ensemble.EventStateUpdated, payload)
}
