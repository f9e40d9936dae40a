// Command host_profile prints a layout profile describing the machine it runs
// on, ready to paste into a --profiles-file. Widths are those of the Go
// toolchain's target; C compilers for the same target usually agree, but
// bitfield packing is not observable from Go and defaults to LSB-first units
// the width of an int.
package main

import (
	"fmt"
	"os"
	"runtime"
	"unsafe"

	"gopkg.in/yaml.v3"

	"github.com/samcharles93/graft/pkg/layout"
)

func main() {
	ptr := int(unsafe.Sizeof(uintptr(0)))
	if ptr > 4 {
		// Only 32-bit layouts can be described.
		fmt.Fprintf(os.Stderr, "note: %d-byte pointers on %s, clamping to 4\n", ptr, runtime.GOARCH)
		ptr = 4
	}

	p := layout.Profile{
		Name:        runtime.GOOS + "-" + runtime.GOARCH,
		Description: "generated on " + runtime.GOOS + "/" + runtime.GOARCH + " with " + runtime.Version(),
		ByteOrder:   layout.HostByteOrder(),
		Config: layout.Config{
			IntWidth:       4,
			PointerWidth:   ptr,
			FieldUnitWidth: 4,
			MemberAlign:    4,
		},
	}
	if _, err := p.Layout(); err != nil {
		fmt.Fprintf(os.Stderr, "profile: %v\n", err)
		os.Exit(1)
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(map[string][]layout.Profile{"profiles": {p}}); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
}
