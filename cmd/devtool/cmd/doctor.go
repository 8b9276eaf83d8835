package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"whatsapp-notifier/internal/envutil"
	"whatsapp-notifier/internal/pkg/chromedevtools"
	"whatsapp-notifier/internal/session"
)

func newDoctorCmd() *cobra.Command {
	var (
		host string
		port string
		dir  string
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check browser, session directory and DevTools reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if loc, ok := locateBrowser(); ok {
				fmt.Fprintf(out, "✅ Browser: %s (%s)\n", loc.Path, loc.Source)
			} else {
				fmt.Fprintln(out, "⚠️  Browser: none found, playwright will use its bundled chromium")
			}

			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("session dir %s not writable: %w", dir, err)
			}
			locks := session.NewSweeperFs(afero.NewOsFs(), zap.NewNop().Sugar()).Find(dir)
			if n := len(locks); n > 0 {
				fmt.Fprintf(out, "⚠️  Session: %s has %d stale lock file(s); run `devtool sweep`\n", dir, n)
			} else {
				fmt.Fprintf(out, "✅ Session: %s\n", dir)
			}

			if strings.TrimSpace(port) == "" {
				fmt.Fprintln(out, "ℹ️  DevTools: CHROME_DEBUG_PORT not set, server launches its own browser")
				return nil
			}

			ctx := context.Background()
			url, effectiveHost := chromedevtools.VersionURLResolved(ctx, host, port)
			fmt.Fprintln(out, "Checking:", url)
			v, err := chromedevtools.FetchVersion(ctx, url, 3*time.Second)
			if err != nil {
				return fmt.Errorf("Chrome DevTools not reachable at %s (is Chrome running with --remote-debugging-port=%s?): %w", effectiveHost, port, err)
			}
			fmt.Fprintf(out, "✅ DevTools: %s reachable\n", v.Browser)
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", envutil.String(os.Getenv, "CHROME_DEBUG_HOST", chromedevtools.DefaultHost), "Chrome DevTools host")
	cmd.Flags().StringVar(&port, "port", os.Getenv("CHROME_DEBUG_PORT"), "Chrome DevTools remote debugging port")
	cmd.Flags().StringVar(&dir, "dir", envutil.SessionDir(os.Getenv), "Session directory")
	return cmd
}
