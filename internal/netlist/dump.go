package netlist

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Dump writes an indented text view of the subtree of c. Each port line shows
// its node id and the node that drives it.
func (n *Netlist) Dump(w io.Writer, c CompID) error {
	d := dumper{n: n, w: w}
	d.component(c, 0)
	return d.err
}

type dumper struct {
	n   *Netlist
	w   io.Writer
	err error
}

func (d *dumper) printf(format string, args ...any) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, format, args...)
}

func (d *dumper) component(id CompID, depth int) {
	comp, ok := d.n.Component(id)
	if !ok {
		return
	}
	indent := strings.Repeat("  ", depth)
	flags := ""
	if comp.Persistent {
		flags = " [persistent]"
	}
	if comp.Kind == KindRegister && comp.Value != nil {
		flags += " init=" + comp.Value.String()
	}
	d.printf("%s%s %s #%d%s\n", indent, comp.Kind, comp.Name, id, flags)

	labelWidth := 0
	for _, p := range append(comp.Inputs[:len(comp.Inputs):len(comp.Inputs)], comp.Outputs...) {
		labelWidth = max(labelWidth, runewidth.StringWidth(p.Label))
	}
	port := func(p Port) {
		nd, _ := d.n.Node(p.Node)
		from := ""
		if src, ok := d.n.Driver(p.Node); ok {
			from = fmt.Sprintf(" <- n%d", src)
		}
		d.printf("%s  %-3s %s : %s n%d%s\n", indent, nd.Role, runewidth.FillRight(p.Label, labelWidth), nd.Type, p.Node, from)
	}
	for _, p := range comp.Inputs {
		port(p)
	}
	for _, p := range comp.Outputs {
		port(p)
	}
	for _, ch := range comp.Children {
		d.component(ch, depth+1)
	}
}
