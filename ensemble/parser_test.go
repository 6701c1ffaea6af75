package ensemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
name: support-reply
description: draft and score a support reply
state:
  initial:
    attempts: 0
scoring:
  enabled: true
  defaultThresholds:
    minimum: 0.7
    target: 0.85
  maxRetries: 3
  backoffStrategy: exponential
  aggregation: weighted_average
trigger:
  - type: webhook
    public: true
notifications:
  - type: webhook
    events: ["execution.completed", "execution.failed"]
    url: https://hooks.example.com/conductor
    secret: s3cr3t
flow:
  - agent: think@v2
    input:
      prompt: "${input.message}"
    state:
      use: ["attempts"]
      set: ["draft"]
    scoring:
      evaluator: quality
      thresholds:
        minimum: 0.8
      onFailure: retry
      retryLimit: 2
  - agent: fetch
    input:
      url: "${state.draft.url}"
output:
  reply: "${state.draft}"
`

func TestParseSampleEnsemble(t *testing.T) {
	e, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	require.NotNil(t, e)

	assert.Equal(t, "support-reply", e.Name)
	assert.True(t, e.Scoring.Enabled)
	assert.Equal(t, BackoffExponential, e.Scoring.BackoffStrategy)
	require.Len(t, e.Trigger, 1)
	assert.Equal(t, TriggerWebhook, e.Trigger[0].Type)
	assert.True(t, e.Trigger[0].Public)
	require.Len(t, e.Notifications, 1)
	assert.True(t, e.Notifications[0].Subscribes(EventExecutionFailed))
	require.Len(t, e.Flow, 2)
	assert.Equal(t, "think@v2", e.Flow[0].Agent)
}

func TestParseRejectsMissingAuthOnWebhookTrigger(t *testing.T) {
	const bad = `
name: x
trigger:
  - type: webhook
flow:
  - agent: think
`
	e, err := Parse([]byte(bad))
	assert.Nil(t, e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth or public")
}

func TestParseRejectsEmptyFlow(t *testing.T) {
	const bad = `
name: x
trigger:
  - type: webhook
    public: true
flow: []
`
	_, err := Parse([]byte(bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flow")
}

func TestValidateReferencesReportsGhostAgent(t *testing.T) {
	const withGhost = `
name: x
trigger:
  - type: webhook
    public: true
flow:
  - agent: ghost
`
	e, err := Parse([]byte(withGhost))
	require.NoError(t, err)

	err = ValidateReferences(e, map[string]bool{"fetch": true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}
