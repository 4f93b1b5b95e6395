package cli

import (
	"github.com/spf13/cobra"
)

func newStylesCommand(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Short: "List the writing styles",
		Args:  noArgs,
		RunE: func(*cobra.Command, []string) error {
			s.printer().styles(s.cfg)
			return nil
		},
	}
}
