package builtin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ensemble-edge/conductor/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchGetsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	agent, err := NewFetch(nil, nil)
	require.NoError(t, err)

	resp, err := agent.Execute(core.AgentContext{
		Input:      map[string]interface{}{"url": srv.URL},
		RuntimeCtx: context.Background(),
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "hello", data["body"])
}

func TestScrapeStripsTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>Hello <b>World</b></p></body></html>"))
	}))
	defer srv.Close()

	agent, err := NewScrape(nil, nil)
	require.NoError(t, err)

	resp, err := agent.Execute(core.AgentContext{
		Input:      map[string]interface{}{"url": srv.URL},
		RuntimeCtx: context.Background(),
	})
	require.NoError(t, err)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Hello World", data["text"])
}

func TestValidateReportsMissingRequiredField(t *testing.T) {
	agent, err := NewValidate(map[string]interface{}{
		"rules": map[string]interface{}{
			"email": map[string]interface{}{"type": "string", "required": true},
		},
	}, nil)
	require.NoError(t, err)

	resp, err := agent.Execute(core.AgentContext{Input: map[string]interface{}{}})
	require.NoError(t, err)
	assert.False(t, resp.Success)
}

func TestRAGRanksByTermOverlap(t *testing.T) {
	agent, err := NewRAG(map[string]interface{}{
		"corpus": []interface{}{"the quick brown fox", "a lazy dog sleeps", "foxes are quick"},
	}, nil)
	require.NoError(t, err)

	resp, err := agent.Execute(core.AgentContext{Input: map[string]interface{}{"query": "quick fox"}})
	require.NoError(t, err)
	data := resp.Data.(map[string]interface{})
	passages := data["passages"].([]string)
	assert.NotEmpty(t, passages)
	assert.Equal(t, "the quick brown fox", passages[0])
}

func TestHITLSuspendsWithoutApproval(t *testing.T) {
	agent, err := NewHITL(nil, nil)
	require.NoError(t, err)

	_, err = agent.Execute(core.AgentContext{Input: map[string]interface{}{}})
	assert.ErrorIs(t, err, core.ErrSuspended)
}

func TestHITLHonorsApproval(t *testing.T) {
	agent, err := NewHITL(nil, nil)
	require.NoError(t, err)

	resp, err := agent.Execute(core.AgentContext{Input: map[string]interface{}{"approved": true}})
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestToolsDispatchesUppercase(t *testing.T) {
	agent, err := NewTools(nil, nil)
	require.NoError(t, err)

	resp, err := agent.Execute(core.AgentContext{Input: map[string]interface{}{
		"tool": "uppercase",
		"args": map[string]interface{}{"text": "hi"},
	}})
	require.NoError(t, err)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "HI", data["result"])
}

func TestQueriesFiltersByEquality(t *testing.T) {
	agent, err := NewQueries(map[string]interface{}{
		"rows": []interface{}{
			map[string]interface{}{"id": 1, "status": "open"},
			map[string]interface{}{"id": 2, "status": "closed"},
		},
	}, nil)
	require.NoError(t, err)

	resp, err := agent.Execute(core.AgentContext{Input: map[string]interface{}{"status": "open"}})
	require.NoError(t, err)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, 1, data["count"])
}
