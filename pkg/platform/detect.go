// pkg/platform/detect.go
package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform represents the detected system platform
type Platform struct {
	OS        string   // linux, darwin, windows
	Arch      string   // amd64, arm64, 386, arm
	Available []string // URL openers found in PATH
	Opener    []string // Preferred opener command and leading arguments
}

// candidate openers per OS, in order of preference
var openers = map[string][][]string{
	"linux":   {{"xdg-open"}, {"gio", "open"}, {"wslview"}, {"sensible-browser"}},
	"freebsd": {{"xdg-open"}},
	"openbsd": {{"xdg-open"}},
	"darwin":  {{"open"}},
	"windows": {{"rundll32", "url.dll,FileProtocolHandler"}},
}

// Detect detects the current platform and its URL opener
func Detect() (*Platform, error) {
	return detect(runtime.GOOS, runtime.GOARCH)
}

func detect(goos, goarch string) (*Platform, error) {
	p := &Platform{
		OS:        goos,
		Arch:      goarch,
		Available: []string{},
	}

	candidates, ok := openers[goos]
	if !ok {
		return nil, fmt.Errorf("unsupported operating system: %s", goos)
	}

	for _, c := range candidates {
		if commandExists(c[0]) {
			p.Available = append(p.Available, c[0])
			if p.Opener == nil {
				p.Opener = c
			}
		}
	}

	return p, nil
}

// String returns a string representation of the platform
func (p *Platform) String() string {
	opener := "none"
	if len(p.Opener) > 0 {
		opener = strings.Join(p.Opener, " ")
	}
	return fmt.Sprintf("%s/%s (available: %v, opener: %s)",
		p.OS, p.Arch, p.Available, opener)
}
