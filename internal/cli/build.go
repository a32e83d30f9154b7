package cli

import (
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run the offer aggregation pipeline and persist the manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Build(cmd.Context())
	},
}
