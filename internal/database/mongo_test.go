package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestIndexKeyPatternsAreDistinct(t *testing.T) {
	for name, models := range indexModels() {
		seen := map[string]bool{}
		for _, model := range models {
			keys, ok := model.Keys.(bson.D)
			require.True(t, ok, "%s: keys must be bson.D", name)
			pattern := fmt.Sprint(keys)
			assert.False(t, seen[pattern], "%s: duplicate index on %s", name, pattern)
			seen[pattern] = true
		}
	}
}

func TestPendingRequestIndexIsPartialUnique(t *testing.T) {
	models := indexModels()[collectionApprovalRequests]

	var found bool
	for _, model := range models {
		if model.Options == nil || model.Options.Name == nil || *model.Options.Name != "one_pending_per_user" {
			continue
		}
		found = true
		require.NotNil(t, model.Options.Unique)
		assert.True(t, *model.Options.Unique)
		assert.NotNil(t, model.Options.PartialFilterExpression)
		assert.Equal(t, bson.D{{"event_id", 1}, {"user_id", 1}}, model.Keys)
	}
	assert.True(t, found)
}
