package cli

import (
	"github.com/spf13/cobra"

	"github.com/Cocadite/api-pe-na-porta/internal/config"
)

// envFiles is overridable with --env-file.
var envFiles []string

func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "formqueue",
		Short:         "Form submission intake with an admin approval queue",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", config.DefaultEnvFiles, "env files to load when present")

	serve := newServeCommand()
	root.AddCommand(serve, newTokenCommand(), newCheckCommand())
	// Running the binary bare starts the server.
	root.RunE = serve.RunE
	return root
}
