package codegen

import (
	"fmt"
	"strings"
)

// DefaultTapeSize is the conventional tape length.
const DefaultTapeSize = 30000

// Config controls code generation.
type Config struct {
	// TapeSize is how many cells to reserve; the cursor starts in the
	// middle so that it may move in either direction.
	TapeSize int

	// EOF decides what a read leaves in the cell at end of input.
	EOF EOFPolicy

	// Debug interleaves comments naming the source of every op.
	Debug bool

	// DeadLoops enables skipping loops that provably never run.
	DeadLoops bool
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		TapeSize:  DefaultTapeSize,
		EOF:       EOFZero,
		DeadLoops: true,
	}
}

// Validate checks the configuration for values that cannot be generated.
func (cfg Config) Validate() error {
	if cfg.TapeSize < 2 {
		return fmt.Errorf("invalid tape size %v, must be at least 2", cfg.TapeSize)
	}
	if cfg.TapeSize > 1<<30 {
		return fmt.Errorf("invalid tape size %v, must be at most %v", cfg.TapeSize, 1<<30)
	}
	if _, ok := eofNames[cfg.EOF]; !ok {
		return fmt.Errorf("invalid end of input policy %v", int(cfg.EOF))
	}
	return nil
}

// EOFPolicy decides the value a read stores when input is exhausted.
type EOFPolicy int

// End of input policies.
const (
	EOFZero      EOFPolicy = iota // store 0
	EOFNegative                   // store -1, i.e. 255
	EOFUnchanged                  // leave the cell as it was
)

var eofNames = map[EOFPolicy]string{
	EOFZero:      "zero",
	EOFNegative:  "neg",
	EOFUnchanged: "unchanged",
}

func (pol EOFPolicy) String() string {
	if name, ok := eofNames[pol]; ok {
		return name
	}
	return fmt.Sprintf("EOFPolicy(%d)", int(pol))
}

// Set parses a policy name, allowing EOFPolicy to serve as a flag value.
func (pol *EOFPolicy) Set(s string) error {
	for val, name := range eofNames {
		if strings.EqualFold(s, name) {
			*pol = val
			return nil
		}
	}
	switch strings.ToLower(s) {
	case "0":
		*pol = EOFZero
	case "-1", "negative":
		*pol = EOFNegative
	case "keep", "none":
		*pol = EOFUnchanged
	default:
		return fmt.Errorf("unknown end of input policy %q, expected zero, neg, or unchanged", s)
	}
	return nil
}

// Type names the flag value type.
func (pol *EOFPolicy) Type() string { return "eof" }

// UnmarshalText implements encoding.TextUnmarshaler through Set.
func (pol *EOFPolicy) UnmarshalText(text []byte) error { return pol.Set(string(text)) }

// MarshalText implements encoding.TextMarshaler through String.
func (pol EOFPolicy) MarshalText() ([]byte, error) { return []byte(pol.String()), nil }
