package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coagents/workflow-engine/internal/node"
	"github.com/coagents/workflow-engine/internal/state"
	"github.com/coagents/workflow-engine/internal/wferrors"
)

func testLoader() (CompiledGraph, error) {
	n := node.NewFunc("start", func(ctx context.Context, s state.RunState) (node.Result, error) {
		return node.Advance(nil), nil
	})
	return CompiledGraph{
		Descriptor: Descriptor{Name: "demo", Industry: "hotel", Tags: []string{"sample"}, RequiredFields: []string{"guest_id"}},
		Entry:      "start",
		Nodes:      map[string]node.Node{"start": n},
	}, nil
}

func TestRegistryListGetLoad(t *testing.T) {
	r := New()
	r.Register(Descriptor{Name: "demo", Industry: "hotel", Tags: []string{"sample"}, RequiredFields: []string{"guest_id"}}, testLoader)

	list := r.List("hotel", "", "")
	require.Len(t, list, 1)
	assert.Equal(t, "demo", list[0].Name)

	_, err := r.Get("missing")
	assert.ErrorIs(t, err, wferrors.ErrUnknownGraph)

	g, err := r.Load("demo")
	require.NoError(t, err)
	assert.Equal(t, "start", g.Entry)
}

func TestRegistryValidateRequiresFields(t *testing.T) {
	r := New()
	r.Register(Descriptor{Name: "demo", RequiredFields: []string{"guest_id"}}, testLoader)

	_, err := r.Validate("demo", state.RunState{})
	assert.ErrorIs(t, err, wferrors.ErrInvalidState)

	merged, err := r.Validate("demo", state.RunState{"guest_id": "g1"})
	require.NoError(t, err)
	assert.Equal(t, "start", merged.CurrentStep())
	assert.Equal(t, "g1", merged["guest_id"])
}
