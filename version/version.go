// Package version provides the joggr-client version strings.
package version

import (
	_ "embed"
	"runtime"
	"strings"
)

// buildVersion can be set at link time:
//
//	go build -ldflags "-X github.com/joggr/joggr-client/version.buildVersion=abc" .

//go:embed VERSION
var baseVersion string
var buildVersion string

func Version() string {
	return strings.TrimSpace(baseVersion)
}

func BuildVersion() string {
	if buildVersion == "" {
		return "x"
	}
	return buildVersion
}

// FullVersion is the version shown by --version.
func FullVersion() string {
	return Version() + "+" + BuildVersion()
}

func UserAgent() string {
	return "joggr-client/" + Version() + "." + BuildVersion() + " (" + runtime.GOOS + "; " + runtime.GOARCH + ")"
}
