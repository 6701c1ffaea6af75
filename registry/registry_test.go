package registry

import (
	"testing"

	"github.com/ensemble-edge/conductor/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBuiltInTrueForSeedSetBeforeAnyResolverCall(t *testing.T) {
	for _, name := range []string{"scrape", "validate", "rag", "hitl", "fetch", "tools", "queries"} {
		assert.True(t, IsBuiltIn(name), name)
	}
	assert.False(t, IsBuiltIn("not-a-thing"))
}

func TestCreateFetchReturnsAgent(t *testing.T) {
	agent, err := Create("fetch", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "fetch", agent.Name())
	assert.Equal(t, core.OpFetch, agent.Type())
}

func TestCreateUnknownReturnsAgentNotFound(t *testing.T) {
	_, err := Create("ghost", nil, nil)
	require.Error(t, err)
	assert.True(t, core.IsNotFound(err))
}

func TestListByTypeFiltersToOperation(t *testing.T) {
	metas := ListByType(core.OpQueries)
	require.Len(t, metas, 1)
	assert.Equal(t, "queries", metas[0].Name)
}

func TestGetMetadataUnknownErrors(t *testing.T) {
	_, err := GetMetadata("ghost")
	assert.Error(t, err)
}
