package debug

import (
	"fmt"
	"io"
	"os"

	"github.com/bradleyjkemp/memviz"

	"kiwi/internal/bus"
)

// DumpState writes the machine state as a Graphviz graph. Render it with
// `dot -Tsvg`.
func DumpState(w io.Writer, state *bus.State) error {
	if state == nil {
		return fmt.Errorf("no state to dump")
	}
	memviz.Map(w, state)
	return nil
}

// DumpStateFile writes DumpState's output to path
func DumpStateFile(path string, state *bus.State) (rerr error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("state dump: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("state dump: %w", err)
		}
	}()
	return DumpState(f, state)
}
