// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv which Docker creates automatically.
var IsInContainer = func() bool {
	_, err := os.Stat("/.dockerenv")
	return err == nil
}

// ForBrowserConnect returns hints for browser connection errors.
// Detects CI/Docker environments and suggests relevant environment variables.
func ForBrowserConnect() string {
	var hs []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hs = append(hs, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}

	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hs = append(hs, "set ROD_BROWSER_BIN to use custom Chrome")
	}

	return formatHints(hs)
}

// ForTimeout returns a hint about increasing timeout for slow compilations.
func ForTimeout() string {
	return format("for large documents, use --timeout flag")
}

// ForConfigNotFound returns a hint listing the searched config locations.
func ForConfigNotFound(searchedPaths []string) string {
	if len(searchedPaths) == 0 {
		return ""
	}
	return format("searched: " + strings.Join(searchedPaths, ", "))
}

// ForSidecarNotFound returns a hint about the annotation sidecar convention.
func ForSidecarNotFound() string {
	return format("annotations for doc.md are read from doc.annotations.yaml next to it")
}

// ForCorruptedMarker returns a hint for converter-mangled markers.
func ForCorruptedMarker() string {
	return format("the converter damaged an annotation token; check that the source does not contain reserved marker text")
}

func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

func formatHints(hs []string) string {
	var out strings.Builder
	for _, h := range hs {
		out.WriteString(format(h))
	}
	return out.String()
}
