package device

import (
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// Capabilities describes the host CPU the CPU backend runs on.
type Capabilities struct {
	Arch   string
	NumCPU int

	// x86-64
	AVX2   bool
	FMA    bool
	AVX512 bool

	// arm64
	NEON bool
	SVE  bool
	SVE2 bool
}

// DetectCapabilities reads the host CPU features.
func DetectCapabilities() Capabilities {
	c := Capabilities{
		Arch:   runtime.GOARCH,
		NumCPU: runtime.NumCPU(),
	}
	switch runtime.GOARCH {
	case "amd64":
		c.AVX2 = cpu.X86.HasAVX2
		c.FMA = cpu.X86.HasFMA
		c.AVX512 = cpu.X86.HasAVX512F && cpu.X86.HasAVX512BW
	case "arm64":
		c.NEON = cpu.ARM64.HasASIMD
		c.SVE = cpu.ARM64.HasSVE
		c.SVE2 = cpu.ARM64.HasSVE2
	}
	return c
}

// Features returns the detected feature names in a stable order.
func (c Capabilities) Features() []string {
	var f []string
	for _, kv := range []struct {
		name string
		ok   bool
	}{
		{"avx2", c.AVX2},
		{"fma", c.FMA},
		{"avx512", c.AVX512},
		{"neon", c.NEON},
		{"sve", c.SVE},
		{"sve2", c.SVE2},
	} {
		if kv.ok {
			f = append(f, kv.name)
		}
	}
	return f
}

func (c Capabilities) String() string {
	features := c.Features()
	if len(features) == 0 {
		return c.Arch + " (generic)"
	}
	return c.Arch + " (" + strings.Join(features, ",") + ")"
}
