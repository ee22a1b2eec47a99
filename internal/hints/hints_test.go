package hints

import (
	"strings"
	"testing"
)

func TestForBrowserConnect(t *testing.T) {
	// Not parallel: mutates the container probe and environment.
	orig := IsInContainer
	defer func() { IsInContainer = orig }()
	IsInContainer = func() bool { return true }

	t.Setenv("ROD_NO_SANDBOX", "")
	t.Setenv("ROD_BROWSER_BIN", "")

	got := ForBrowserConnect()
	if !strings.Contains(got, "ROD_NO_SANDBOX") {
		t.Errorf("ForBrowserConnect() = %q, want sandbox hint in container", got)
	}
	if !strings.Contains(got, "ROD_BROWSER_BIN") {
		t.Errorf("ForBrowserConnect() = %q, want browser-bin hint", got)
	}
}

func TestHintFormat(t *testing.T) {
	t.Parallel()

	if got := ForTimeout(); !strings.HasPrefix(got, "\n  hint: ") {
		t.Errorf("ForTimeout() = %q, want hint prefix", got)
	}
	if got := ForConfigNotFound(nil); got != "" {
		t.Errorf("ForConfigNotFound(nil) = %q, want empty", got)
	}
	got := ForConfigNotFound([]string{"a.yaml", "b.yaml"})
	if !strings.Contains(got, "a.yaml, b.yaml") {
		t.Errorf("ForConfigNotFound() = %q, want searched paths listed", got)
	}
	if got := ForSidecarNotFound(); !strings.Contains(got, "annotations.yaml") {
		t.Errorf("ForSidecarNotFound() = %q, want sidecar convention", got)
	}
}
