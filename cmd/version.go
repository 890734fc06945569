package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/unloadpipe/unloadpipe/internal/build"
)

// NewVersionCommand returns the command to get the unloadpipe version.
func NewVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Return the unloadpipe version",
		Long:  "Return the unloadpipe version.",
		RunE:  version,
		Args:  cobra.NoArgs,
	}

	return cmd
}

// print out the built version
func version(_ *cobra.Command, _ []string) error {
	log.Printf("unloadpipe Version %s Date %s commit id %s ", build.Version, build.Date, build.Commit)
	return nil
}
