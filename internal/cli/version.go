package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var versionOutput string

func init() {
	versionCmd.Flags().StringVarP(&versionOutput, "output", "o", "text",
		"Output format (text, short or json)")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch versionOutput {
		case "short":
			fmt.Fprintln(out, buildVersion)
		case "json":
			info := struct {
				Version string `json:"version"`
				Commit  string `json:"commit"`
				Date    string `json:"date"`
			}{buildVersion, buildCommit, buildDate}
			data, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding version info: %w", err)
			}
			fmt.Fprintln(out, string(data))
		case "text":
			fmt.Fprintf(out, "enmasse %s\n  commit: %s\n  built:  %s\n",
				buildVersion, buildCommit, buildDate)
		default:
			return fmt.Errorf("unknown output format %q, must be text, short or json", versionOutput)
		}
		return nil
	},
}
