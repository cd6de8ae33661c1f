package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/registry"
)

// Overlay contains conversation state to highlight on the graph.
type Overlay struct {
	Visited []string
	Current string
}

// Node identifiers used in the generated flowchart.
const (
	NodeTurn      = "turn"
	NodeCardReply = string(domain.BranchCardReply)
	NodeShopping  = string(domain.BranchShopping)
	NodeReset     = string(domain.BranchReset)
	NodeEnd       = "end"
)

// OverlayFromState derives the highlighted nodes from a stored conversation.
// The active frame's step is current; steps whose slots are already filled are visited.
func OverlayFromState(state *domain.ConversationState) *Overlay {
	if state == nil {
		return nil
	}
	o := &Overlay{}
	frame, ok := state.DialogStack.Active()
	if !ok {
		return o
	}

	o.Visited = append(o.Visited, NodeShopping)
	o.Current = string(frame.Step)
	if state.Slots.Intent != "" || state.Slots.Action != "" {
		o.Visited = append(o.Visited, string(domain.StepAskAction))
	}
	if state.Slots.Item != "" {
		o.Visited = append(o.Visited, string(domain.StepAskItem))
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the turn router and the shopping dialog.
// Shapes:
// - Entry/exit: ((Circle))
// - Prompting step: [/Parallelogram/]
// - Branch: [Rectangle]
// Transition labels list the registry's vocabulary.
func GenerateMermaid(reg *registry.Registry, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	node := func(id, opener, closer string) {
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, id, closer)
	}
	edge := func(from, to, label string, dotted bool) {
		arrow := "-->"
		if dotted {
			arrow = "-.->"
		}
		if label != "" {
			label = strings.ReplaceAll(label, "\"", "'")
			arrow = fmt.Sprintf("-- \"%s\" -->", label)
			if dotted {
				arrow = fmt.Sprintf("-. \"%s\" .->", label)
			}
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", from, arrow, to)
	}

	askAction := string(domain.StepAskAction)
	askItem := string(domain.StepAskItem)
	answer := string(domain.StepProvideAnswer)

	node(NodeTurn, "((", "))")
	node(NodeCardReply, "[", "]")
	node(NodeShopping, "[", "]")
	node(NodeReset, "[", "]")
	node(askAction, "[/", "/]")
	node(askItem, "[/", "/]")
	node(answer, "[", "]")
	node(NodeEnd, "((", "))")

	edge(NodeTurn, NodeCardReply, "matches last options", false)
	edge(NodeTurn, NodeShopping, "trigger: "+reg.ShoppingLabel(), false)
	edge(NodeTurn, NodeReset, "otherwise", false)
	edge(NodeShopping, askAction, "", false)
	edge(NodeCardReply, askItem, "resume active step", true)
	edge(askAction, askItem, strings.Join(reg.Actions(), " / "), false)
	edge(askItem, answer, strings.Join(reg.Items(), " / "), false)
	edge(answer, NodeEnd, "", false)
	edge(NodeReset, NodeEnd, "menu", true)

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on both light and dark themes
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Visited {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", id)
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", overlay.Current)
		}
	}

	return sb.String()
}
