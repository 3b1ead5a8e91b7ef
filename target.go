package som

import (
	"github.com/appsworld/go-som/pkg/fixup"
	"github.com/appsworld/go-som/types"
)

// Target is the small set of CPU-specific knowledge the reader and
// writer pipelines need in order to stay agnostic of exactly which
// PA-RISC generation produced a file: the system ID stamped in the
// header, and the fixup opcode table that generation's linker used.
// TargetFor picks one of these off the header's SystemID field, one per
// PA-RISC generation (see TargetFor).
type Target struct {
	Name    string
	CPU     types.CPU
	Machine types.Machine
	Howtos  *[256]fixup.Howto
}

// TargetFor returns the Target matching a header's SystemID, or nil if
// the id isn't PA-RISC at all. Every PA-RISC id resolves to a Target:
// the system ids go-som can name a specific generation for (1.1, 2.0)
// get that generation's Machine, and any other PA-RISC id in the
// accepted range defaults to hppa:pa10, the architecture HP's own
// toolchain fell back to when a file's generation wasn't otherwise
// pinned down. The fixup opcode table is fixup.Table, shared across
// every generation since the opcode space itself never changed across
// PA-RISC revisions.
func TargetFor(systemID types.CPU) *Target {
	if !systemID.IsPARisc() {
		return nil
	}
	machine := types.MachinePA10
	switch systemID {
	case types.CPUPARisc11:
		machine = types.MachinePA11
	case types.CPUPARisc20:
		machine = types.MachinePA20
	}
	return &Target{
		Name:    "hppa-hp-hpux",
		CPU:     systemID,
		Machine: machine,
		Howtos:  &fixup.Table,
	}
}

// PARisc is the default target a Writer binds to when the caller
// doesn't need to target a specific file's SystemID: PA-RISC 1.1, the
// generation HP's own toolchain treated as its common baseline.
var PARisc = TargetFor(types.CPUPARisc11)

// Howto looks up the relocation behavior for one fixup opcode.
func (t *Target) Howto(op fixup.Opcode) fixup.Howto {
	return t.Howtos[op]
}
