// pkg/platform/utils.go
package platform

import (
	"os/exec"
)

// lookPath is swapped in tests
var lookPath = exec.LookPath

// commandExists checks if a command is available in PATH
func commandExists(cmd string) bool {
	_, err := lookPath(cmd)
	return err == nil
}
