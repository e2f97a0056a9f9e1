package compiler

import (
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/bfsys/abi"
	"github.com/ezrec/bfsys/internal"
	"github.com/ezrec/bfsys/machine"
)

// Memory map defaults.
const (
	VAR_LIMIT     = 64    // End of the variable region.
	LITERAL_LIMIT = 256   // End of the literal region.
	SCRATCH_BASE  = 256   // Start of the scratch region.
	SCRATCH_LIMIT = 320   // End of the scratch region.
	TAPE_SIZE     = 30000 // Default tape capacity.

	// Smallest tape that holds any address below 256 plus any length
	// below 256.
	TAPE_MIN = 512
)

// Config selects the target of a compilation and its memory map.
type Config struct {
	Verbose bool // If set, verbosely logs the compiler actions.

	Mode machine.Mode // Target machine mode.
	Arch abi.Arch     // Target syscall numbering.

	VarLimit     int // Variables live in abi.CELL_USER..VarLimit-1.
	LiteralLimit int // Literals live in VarLimit..LiteralLimit-1.
	ScratchBase  int // Scratch cells live in ScratchBase..ScratchLimit-1.
	ScratchLimit int
	TapeSize     int // Tape capacity in cells.

	Defines map[string]int // Extra equates visible to $(...) expressions.
}

// DefaultConfig returns the default memory map for a mode and architecture.
func DefaultConfig(mode machine.Mode, arch abi.Arch) Config {
	return Config{
		Mode:         mode,
		Arch:         arch,
		VarLimit:     VAR_LIMIT,
		LiteralLimit: LITERAL_LIMIT,
		ScratchBase:  SCRATCH_BASE,
		ScratchLimit: SCRATCH_LIMIT,
		TapeSize:     TAPE_SIZE,
	}
}

// Validate checks that the regions are ordered, do not overlap, and that
// every literal address fits a cell.
func (cfg *Config) Validate() (err error) {
	switch {
	case cfg.VarLimit <= abi.CELL_USER,
		cfg.LiteralLimit < cfg.VarLimit,
		cfg.LiteralLimit > 256,
		cfg.ScratchBase < cfg.LiteralLimit,
		cfg.ScratchLimit <= cfg.ScratchBase,
		cfg.TapeSize < cfg.ScratchLimit,
		cfg.TapeSize < TAPE_MIN:
		err = fmt.Errorf("%w: vars %d, literals %d, scratch %d..%d, tape %d",
			ErrConfigInvalid, cfg.VarLimit, cfg.LiteralLimit,
			cfg.ScratchBase, cfg.ScratchLimit, cfg.TapeSize)
	}

	return
}

// Equates returns all of the equates visible to $(...) expressions: the
// cell layout, the syscall numbers of the target architecture, the memory
// map, and the user defines.
func (cfg *Config) Equates() (equates iter.Seq2[string, int], err error) {
	desc, err := abi.NewDescriptor(cfg.Arch)
	if err != nil {
		return
	}

	memory := map[string]int{
		"VAR_LIMIT":     cfg.VarLimit,
		"LITERAL_LIMIT": cfg.LiteralLimit,
		"SCRATCH_BASE":  cfg.ScratchBase,
		"SCRATCH_LIMIT": cfg.ScratchLimit,
		"TAPE_SIZE":     cfg.TapeSize,
	}

	equates = internal.IterSeq2Concat(
		abi.LayoutDefines(),
		desc.Defines(),
		maps.All(memory),
		maps.All(cfg.Defines),
	)

	return
}
