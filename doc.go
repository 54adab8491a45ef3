// Package witness provides the shared vocabulary for the circuit witness
// resolution engine: variable identifiers (Place), resolution closures and
// their positional output buffer, and the read-side interfaces exposed by a
// witness source.
//
// The engine itself lives in the resolver package. A circuit builder supplies
// values for some Places directly and registers resolutions for the rest; the
// engine derives a valid execution order on the fly and fills in the full
// witness, optionally recording the realized schedule so that later runs over
// a circuit of identical shape can replay it.
package witness

import (
	"github.com/blang/semver/v4"
)

// Version of the witness module; embedded in serialized resolution records.
var Version = semver.MustParse("0.1.0")
