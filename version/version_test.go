package version_test

import (
	"testing"

	"github.com/vsariola/looper/version"
)

func TestString(t *testing.T) {
	if version.String() == "" {
		t.Fatal("version string should never be empty")
	}
	old := version.Version
	defer func() { version.Version = old }()
	version.Version = "v1.2.3"
	if got := version.String(); got != "v1.2.3" {
		t.Fatalf("got %q, want v1.2.3", got)
	}
}
