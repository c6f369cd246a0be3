package mgmt

import (
	"fmt"
)

// HexDump renders b as space separated hex bytes for debug logging.
func HexDump(b []byte) string {
	if len(b) == 0 {
		return "[]"
	}
	return fmt.Sprintf("[% x]", b)
}
