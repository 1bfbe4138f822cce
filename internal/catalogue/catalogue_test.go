package catalogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultListsEveryOp(t *testing.T) {
	tags := []string{}
	for _, op := range Default.Ops() {
		tags = append(tags, op.Tag)
	}
	assert.Equal(t, []string{
		GetItems.Tag(), GetConfig.Tag(), ToggleFeature.Tag(), Search.Tag(),
		Ping.Tag(), UpdateItems.Tag(), ListNamespaces.Tag(), ItemsChanged.Tag(),
	}, tags)
}

func TestNullableRequests(t *testing.T) {
	nullable := map[string]bool{}
	for _, op := range Default.Ops() {
		nullable[op.Tag] = op.Nullable
	}
	assert.True(t, nullable["get-items"])
	assert.True(t, nullable["ping"])
	assert.True(t, nullable["list-namespaces"])
	assert.False(t, nullable["toggle-feature"])
	assert.False(t, nullable["search"])
}

func TestSearchQueryValidate(t *testing.T) {
	require.NoError(t, SearchQuery{Term: "a", Limit: Int(2)}.Validate())
	require.NoError(t, SearchQuery{Term: "a"}.Validate())
	assert.Error(t, SearchQuery{}.Validate())
	assert.Error(t, SearchQuery{Term: "a", Limit: Int(-1)}.Validate())
	assert.Error(t, SearchQuery{Term: "a", Limit: Int(MaxSearchLimit + 1)}.Validate())
}

func TestResultsAreExclusive(t *testing.T) {
	assert.Error(t, ItemsResult{}.Validate())
	assert.NoError(t, ConfigResult{}.Validate())
	assert.NoError(t, ConfigResult{Value: Str("x")}.Validate())
	assert.Error(t, ConfigResult{Value: Str("x"), Values: map[string]string{}}.Validate())
}
