package production

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/comalice/procession/internal/primitives"
)

// DefaultVisualizer renders the procession lifecycle table.
type DefaultVisualizer struct{}

// ExportDOT generates Graphviz DOT source for the lifecycle, highlighting
// current. Terminal states are drawn as double circles.
func (v *DefaultVisualizer) ExportDOT(l primitives.Lifecycle, current primitives.LifecycleState) string {
	var buf bytes.Buffer
	buf.WriteString(`digraph Lifecycle {
  rankdir=LR;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
  "__start" [shape=point];
`)
	fmt.Fprintf(&buf, "  \"__start\" -> %q;\n", string(l.Initial))

	for _, s := range l.States() {
		attrs := ""
		if s.Terminal() {
			attrs += " shape=doublecircle"
		}
		if s == current {
			attrs += " style=filled fillcolor=lightgreen"
		}
		fmt.Fprintf(&buf, "  %q [label=%q%s];\n", string(s), string(s), attrs)
	}

	for _, t := range l.Transitions {
		fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", string(t.From), string(t.To), string(t.Trigger))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ExportJSON serializes the lifecycle table to JSON.
func (v *DefaultVisualizer) ExportJSON(l primitives.Lifecycle) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}
