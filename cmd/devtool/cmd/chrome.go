package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"whatsapp-notifier/internal/envutil"
)

func newChromeCmd() *cobra.Command {
	var (
		addr       string
		port       string
		profileDir string
		headless   bool
	)

	cmd := &cobra.Command{
		Use:   "chrome",
		Short: "Start Chrome with DevTools enabled on the session profile",
		Long: "Start Chrome with remote debugging on the WhatsApp session profile. " +
			"Point CHROME_DEBUG_HOST/CHROME_DEBUG_PORT at it to let the server attach over CDP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(addr) == "" {
				return errors.New("missing --addr")
			}
			if strings.TrimSpace(port) == "" {
				return errors.New("missing --port")
			}
			if strings.TrimSpace(profileDir) == "" {
				return errors.New("missing --profile-dir")
			}
			if err := os.MkdirAll(profileDir, 0o755); err != nil {
				return err
			}

			flags := []string{
				"--remote-debugging-address=" + addr,
				"--remote-debugging-port=" + port,
				"--user-data-dir=" + profileDir,
				"--no-first-run",
			}
			if headless {
				flags = append(flags, "--headless=new")
			}

			var c *exec.Cmd
			switch runtime.GOOS {
			case "darwin":
				// macOS: use `open` so it starts as a normal app instance.
				c = exec.Command("open", append([]string{"-na", "Google Chrome", "--args"}, flags...)...)
			case "linux":
				loc, ok := locateBrowser()
				if !ok {
					return errBrowserNotFound
				}
				c = exec.Command(loc.Path, append(flags, "--no-sandbox")...)
				c.Stdout = io.Discard
				c.Stderr = io.Discard
			default:
				return fmt.Errorf("unsupported OS for auto-launch: %s (start Chrome manually with --remote-debugging-port and --user-data-dir)", runtime.GOOS)
			}
			if err := c.Start(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Chrome launch requested (port=%s, profile=%s)\n", port, profileDir)
			fmt.Fprintf(cmd.OutOrStdout(), "DevTools check: http://%s:%s/json/version\n", addr, port)
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", envutil.String(os.Getenv, "CHROME_DEBUG_BIND_ADDR", "127.0.0.1"), "Chrome DevTools remote debugging bind address (use 0.0.0.0 for Docker access)")
	cmd.Flags().StringVar(&port, "port", envutil.String(os.Getenv, "CHROME_DEBUG_PORT", "9222"), "Chrome DevTools remote debugging port")
	cmd.Flags().StringVar(&profileDir, "profile-dir", envutil.SessionDir(os.Getenv), "Chrome profile directory shared with the server")
	cmd.Flags().BoolVar(&headless, "headless", envutil.Bool(os.Getenv, "BROWSER_HEADLESS", false), "Run Chrome headless")
	return cmd
}
