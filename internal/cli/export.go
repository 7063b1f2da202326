package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vorvix/zato/internal/diag"
	"github.com/vorvix/zato/internal/document"
	"github.com/vorvix/zato/internal/reconcile"
)

var (
	exportInput         string
	exportFormat        string
	exportDir           string
	exportLocal         bool
	exportRemote        bool
	exportIgnoreMissing bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export configuration into one consolidated dump file",
	Long: `Export writes a timestamped dump file. With --local the local
document is exported on its own; with --remote the cluster's current
objects are; with both, local definitions override their remote
counterparts and everything else is preserved.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportInput, "input", "i", "", "Path to the local configuration document")
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Document format (json or yaml)")
	exportCmd.Flags().StringVar(&exportDir, "dir", ".", "Directory the dump file is written to")
	exportCmd.Flags().BoolVar(&exportLocal, "local", false, "Export the local document")
	exportCmd.Flags().BoolVar(&exportRemote, "remote", false, "Export the cluster's objects")
	exportCmd.Flags().BoolVar(&exportIgnoreMissing, "ignore-missing", false, "Ignore references to missing definitions")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if !exportLocal && !exportRemote {
		return fmt.Errorf("at least one of --local or --remote is required")
	}
	if exportLocal && exportInput == "" {
		return fmt.Errorf("--local requires --input")
	}

	ctx := cmd.Context()

	sess, err := connect(ctx)
	if err != nil {
		return err
	}
	codec, err := document.ForFormat(exportFormat)
	if err != nil {
		return err
	}

	local := make(reconcile.Universe)
	if exportLocal {
		var parseResult *diag.Result
		local, parseResult = document.NewParser(exportInput, codec, sess.registry).Parse()
		if !parseResult.OK() {
			reportResults(cmd.OutOrStdout(), parseResult)
			return fmt.Errorf("document parsing failed")
		}
	}

	universe := local
	if exportRemote {
		if err := sess.mirror.Refresh(ctx); err != nil {
			return fmt.Errorf("refreshing catalog mirror: %w", err)
		}
		log.Info().Msg("cluster objects read")

		var mergeResult *diag.Result
		universe, mergeResult = reconcile.Merge(local, sess.mirror.Objects)
		if !mergeResult.OK() {
			reportResults(cmd.OutOrStdout(), mergeResult)
			return fmt.Errorf("merging local and cluster objects failed")
		}
		log.Info().Msg("cluster objects merged in")
	}

	scanner := &reconcile.Scanner{Registry: sess.registry, IgnoreMissing: exportIgnoreMissing}
	if scanResult := scanner.Scan(universe); !scanResult.OK() {
		reportResults(cmd.OutOrStdout(), scanResult)
		return fmt.Errorf("not all referenced definitions exist")
	}

	validator := &reconcile.Validator{Registry: sess.registry}
	if validation := validator.Validate(universe); !validation.OK() {
		reportResults(cmd.OutOrStdout(), validation)
		return fmt.Errorf("required elements missing")
	}

	exporter := &document.Exporter{Dir: exportDir, Codec: codec, Registry: sess.registry}
	path, err := exporter.Write(universe)
	if err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("data exported")
	return nil
}
