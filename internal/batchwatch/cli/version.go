package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/batchtools/batchwatch/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if jsonOutput {
				data, _ := json.MarshalIndent(version.GetBuildInfo(), "", "  ")
				fmt.Println(string(data))
				return
			}
			fmt.Printf("batchwatch %s\n", version.GetShortVersion())
		},
	}
}
