//go:build !statsview

package statsview

import (
	"fmt"
	"io"
)

// Launch reports that the build carries no statistics server
func Launch(output io.Writer) {
	fmt.Fprintln(output, "stats server not available: build with -tags statsview")
}

// Available reports whether Launch starts a server
func Available() bool {
	return false
}
