package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"whatsapp-notifier/internal/envutil"
	"whatsapp-notifier/internal/session"
)

func newSweepCmd() *cobra.Command {
	var (
		dir    string
		prefix string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove stale browser lock files from the session directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			defer func() { _ = log.Sync() }()

			session.NewSweeperFs(afero.NewOsFs(), log, prefix).Sweep(dir)
			fmt.Fprintf(cmd.OutOrStdout(), "Swept %s\n", dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", envutil.SessionDir(os.Getenv), "Session directory to sweep")
	cmd.Flags().StringVar(&prefix, "prefix", envutil.String(os.Getenv, "SESSION_LOCK_PREFIX", session.DefaultLockPrefix), "Lock file name prefix")
	return cmd
}
