package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"whatsapp-notifier/config"
	"whatsapp-notifier/internal/browser"
	"whatsapp-notifier/internal/envutil"
)

var errBrowserNotFound = errors.New("no chromium/chrome executable found; playwright will use its bundled browser")

func newLocateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Print the browser executable the server would use",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, ok := locateBrowser()
			if !ok {
				return errBrowserNotFound
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t(source=%s %s)\n", loc.Path, loc.Source, loc.Detail)
			if override := envutil.ExecutableOverride(os.Getenv); override != "" && loc.Source != browser.SourceEnv {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: ignored unusable override %s\n", override)
			}
			return nil
		},
	}
}

func locateBrowser() (browser.Location, bool) {
	cfg := &config.Config{}
	cfg.Chrome.PuppeteerExecutablePath = os.Getenv("PUPPETEER_EXECUTABLE_PATH")
	cfg.Chrome.ChromeBin = os.Getenv("CHROME_BIN")
	return browser.NewLocator(cfg, newLogger()).Locate()
}
