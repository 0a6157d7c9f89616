package widget

import (
	"fmt"
	"os/exec"
	"runtime"
)

// browserCommand returns the command that opens url on goos.
func browserCommand(goos, url string) (*exec.Cmd, error) {
	switch goos {
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", url), nil
	case "darwin":
		return exec.Command("open", url), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// OpenBrowser opens the panel URL in the user's default browser without
// waiting for it to exit.
func OpenBrowser(url string) error {
	cmd, err := browserCommand(runtime.GOOS, url)
	if err != nil {
		return err
	}
	return cmd.Start()
}
