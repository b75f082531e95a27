package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	old := Version
	Version = "v0.3.0"
	defer func() { Version = old }()

	if got := Template(); !strings.HasPrefix(got, "{{.Name}} version v0.3.0\n") {
		t.Errorf("Template() = %q", got)
	}
	if got := String(); !strings.Contains(got, "version: v0.3.0") {
		t.Errorf("String() = %q", got)
	}
}
