package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WORKFLOW_CHECKPOINT_DSN", "")
	t.Setenv("WORKFLOW_CHECKPOINT_TTL_HOURS", "")
	t.Setenv("WORKFLOW_NAMESPACE", "")
	t.Setenv("WORKFLOW_RECURSION_LIMIT", "")
	t.Setenv("WORKFLOW_BIND_ADDR", "")

	c := Load()
	assert.Equal(t, 24*time.Hour, c.CheckpointTTL)
	assert.Equal(t, "langgraph", c.Namespace)
	assert.Equal(t, 25, c.RecursionLimit)
	assert.Equal(t, ":8001", c.BindAddr)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WORKFLOW_NAMESPACE", "custom")
	t.Setenv("WORKFLOW_RECURSION_LIMIT", "10")

	c := Load()
	assert.Equal(t, "custom", c.Namespace)
	assert.Equal(t, 10, c.RecursionLimit)
}
