package netlist

import "errors"

var (
	// ErrDstBound is returned by Connect when the destination already has an inbound wire.
	ErrDstBound = errors.New("destination node already driven")
	// ErrSelfLoop is returned by Connect when src and dst are the same node.
	ErrSelfLoop = errors.New("wire from a node to itself")
	// ErrDuplicatePort is returned when a port label is already used on a component side.
	ErrDuplicatePort = errors.New("duplicate port label")
	// ErrReparent is returned when a node or component already has a parent.
	ErrReparent = errors.New("already attached to a parent")
	// ErrCycle is returned by AddChild when the child is an ancestor of the parent.
	ErrCycle = errors.New("component tree cycle")
	// ErrUnknown is returned for ids that do not name a live record.
	ErrUnknown = errors.New("unknown netlist id")
)
