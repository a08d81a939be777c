package netlist

type (
	NodeID uint32
	WireID uint32
	CompID uint32
)

const (
	NoNodeID NodeID = 0
	NoWireID WireID = 0
	NoCompID CompID = 0
)

func (id NodeID) IsValid() bool { return id != NoNodeID }
func (id WireID) IsValid() bool { return id != NoWireID }
func (id CompID) IsValid() bool { return id != NoCompID }
