//go:build !statsview

package statsview

import (
	"bytes"
	"strings"
	"testing"
)

func TestLaunchWithoutTag(t *testing.T) {
	if Available() {
		t.Fatal("Expected statsview unavailable without the build tag")
	}

	var buf bytes.Buffer
	Launch(&buf)
	if !strings.Contains(buf.String(), "-tags statsview") {
		t.Errorf("Unexpected message %q", buf.String())
	}
}
