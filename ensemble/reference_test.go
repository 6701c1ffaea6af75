package ensemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAgentReferenceSplitsOnAt(t *testing.T) {
	name, version, err := ParseAgentReference("think@v2")
	require.NoError(t, err)
	assert.Equal(t, "think", name)
	assert.Equal(t, "v2", version)
}

func TestParseAgentReferenceWithoutVersion(t *testing.T) {
	name, version, err := ParseAgentReference("fetch")
	require.NoError(t, err)
	assert.Equal(t, "fetch", name)
	assert.Equal(t, "", version)
}

func TestParseAgentReferenceRejectsMultipleAt(t *testing.T) {
	_, _, err := ParseAgentReference("think@v2@v3")
	assert.Error(t, err)
}

func TestParseAgentReferenceRejectsIllegalCharacters(t *testing.T) {
	_, _, err := ParseAgentReference("think/../etc")
	assert.Error(t, err)
}
