package vm

// Hardfork identifies the protocol rule set active for a given execution.
// Ordering matters: later hardforks compare greater than earlier ones, so
// gating checks can simply compare hf >= SomeFork.
type Hardfork uint8

const (
	Frontier Hardfork = iota
	Homestead
	TangerineWhistle
	SpuriousDragon
	Byzantium
	Constantinople
	Istanbul
	Berlin
	London
	Merge
	Shanghai
	Cancun
)

var hardforkNames = map[Hardfork]string{
	Frontier:         "frontier",
	Homestead:        "homestead",
	TangerineWhistle: "tangerineWhistle",
	SpuriousDragon:   "spuriousDragon",
	Byzantium:        "byzantium",
	Constantinople:   "constantinople",
	Istanbul:         "istanbul",
	Berlin:           "berlin",
	London:           "london",
	Merge:            "merge",
	Shanghai:         "shanghai",
	Cancun:           "cancun",
}

func (hf Hardfork) String() string {
	if s, ok := hardforkNames[hf]; ok {
		return s
	}
	return "unknown"
}

// AtLeast reports whether hf is at or after target.
func (hf Hardfork) AtLeast(target Hardfork) bool {
	return hf >= target
}
