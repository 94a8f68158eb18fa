package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaskProgress(t *testing.T) {
	payload, err := ParseTaskProgress(map[string]interface{}{
		"session_id": float64(4),
		"task_id":    "scan-1",
		"status":     "running",
		"progress":   float64(35),
		"message":    "pulling layers",
		"data":       map[string]interface{}{"image": "redis:7"},
	})
	require.NoError(t, err)
	assert.Equal(t, uint(4), payload.SessionId)
	assert.Equal(t, "scan-1", payload.TaskId)
	assert.Equal(t, 35, payload.Progress)
	assert.Equal(t, "redis:7", payload.Data["image"])

	_, err = ParseTaskProgress(map[string]interface{}{"task_id": "x"})
	assert.Error(t, err)
	_, err = ParseTaskProgress(map[string]interface{}{"session_id": float64(1)})
	assert.Error(t, err)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.task.progress", Subject(TaskProgress))
}
