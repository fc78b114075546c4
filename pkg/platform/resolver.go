// pkg/platform/resolver.go
package platform

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
)

// Open launches the platform's URL opener for rawURL without waiting
// for the browser to exit.
func (p *Platform) Open(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parsing url: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("refusing to open %q: not an http(s) url", rawURL)
	}
	if len(p.Opener) == 0 {
		return fmt.Errorf("no url opener available on %s/%s", p.OS, p.Arch)
	}

	args := append(append([]string{}, p.Opener[1:]...), u.String())
	cmd := exec.CommandContext(ctx, p.Opener[0], args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", p.Opener[0], err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
