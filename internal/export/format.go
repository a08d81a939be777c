package export

import (
	"encoding/json"
	"fmt"
	"io"

	"minisynth/internal/netlist"
)

// Format selects an output representation.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatELK  Format = "elk"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatELK:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want text, json or elk)", s)
}

// Write renders the subtree of root in the given format.
func Write(w io.Writer, f Format, n *netlist.Netlist, root netlist.CompID, opts Options) error {
	switch f {
	case FormatText:
		return n.Dump(w, root)
	case FormatJSON:
		snap, err := n.Snapshot(root)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	case FormatELK:
		return WriteELK(w, n, root, opts)
	}
	return fmt.Errorf("unknown format %q", f)
}
