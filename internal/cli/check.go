package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Cocadite/api-pe-na-porta/internal/config"
	"github.com/Cocadite/api-pe-na-porta/internal/logging"
	"github.com/Cocadite/api-pe-na-porta/internal/service"
)

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load the configured store and print submission counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return err
			}
			log, closeLog, err := logging.New(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			st, closeStore, err := openStore(cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			stats, err := service.NewSubmissionService(st, log).Stats()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "submissions: %d (pending %d, approved %d, rejected %d, done %d)\nbot queue: %d\nlog entries: %d\n",
				stats.Total, stats.Pending, stats.Approved, stats.Rejected, stats.Done, stats.ApprovedPending, stats.Logs)
			return nil
		},
	}
}
