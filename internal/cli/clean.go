package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var cleanYes bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete every configuration object from the cluster",
	Long: `Clean removes every reconcilable object currently in the cluster.
Internal objects are never touched. Individual delete failures are
reported and skipped; the run always visits every object.`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sess, err := connect(ctx)
	if err != nil {
		return err
	}
	if err := sess.mirror.Refresh(ctx); err != nil {
		return fmt.Errorf("refreshing catalog mirror: %w", err)
	}

	if !cleanYes {
		fmt.Fprint(cmd.OutOrStdout(), "? Delete every object from the cluster? (y/N) ")
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
			if answer != "y" && answer != "yes" {
				fmt.Fprintln(cmd.OutOrStdout(), "Clean cancelled.")
				return nil
			}
		}
	}

	count := sess.mirror.DeleteAll(ctx)
	log.Info().Int("count", count).Msg("deleted items")
	return nil
}
