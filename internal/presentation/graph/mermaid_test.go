package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMermaid(t *testing.T) {
	out := graph.GenerateMermaid(registry.Default(), nil)

	for _, want := range []string{
		"graph TD\n",
		"turn((\"turn\"))",
		"ask_action[/\"ask_action\"/]",
		"ask_item[/\"ask_item\"/]",
		"provide_answer[\"provide_answer\"]",
		"turn -- \"matches last options\" --> card_reply",
		"turn -- \"otherwise\" --> reset",
		"card_reply -. \"resume active step\" .-> ask_item",
		"provide_answer --> end",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaid_RegistryLabels(t *testing.T) {
	reg := registry.Default()
	out := graph.GenerateMermaid(reg, nil)

	for _, action := range reg.Actions() {
		assert.Contains(t, out, action)
	}
	for _, item := range reg.Items() {
		assert.Contains(t, out, item)
	}
	assert.Contains(t, out, "trigger: "+reg.ShoppingLabel())
}

func TestOverlayFromState(t *testing.T) {
	t.Run("Idle conversation", func(t *testing.T) {
		o := graph.OverlayFromState(domain.NewConversationState("c1"))
		require.NotNil(t, o)
		assert.Empty(t, o.Current)
		assert.Empty(t, o.Visited)
	})

	t.Run("Waiting for item", func(t *testing.T) {
		state := domain.NewConversationState("c1")
		state.DialogStack.Push(domain.DialogFrame{DialogID: domain.DialogShopping, Step: domain.StepAskItem})
		state.Slots.Action = "buy"

		o := graph.OverlayFromState(state)
		assert.Equal(t, "ask_item", o.Current)
		assert.Equal(t, []string{"shopping", "ask_action"}, o.Visited)

		out := graph.GenerateMermaid(registry.Default(), o)
		assert.Contains(t, out, "class ask_item current;")
		assert.Contains(t, out, "class ask_action visited;")
		assert.Contains(t, out, "class shopping visited;")
	})

	t.Run("Nil state", func(t *testing.T) {
		assert.Nil(t, graph.OverlayFromState(nil))
	})
}

func TestGenerateMermaid_OverlayDeduplicates(t *testing.T) {
	out := graph.GenerateMermaid(registry.Default(), &graph.Overlay{
		Visited: []string{"shopping", "shopping", ""},
	})
	assert.Equal(t, 1, strings.Count(out, "class shopping visited;"))
}
