package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the rendezq client.
// It registers the queue group plus the shutdown, health and search commands.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "rendezq",
		Short: "rendezq client commands",
	}
	root.AddCommand(NewQueueCommand(), NewShutdownCommand(), NewHealthCommand(), NewSearchCommand())
	return root
}
