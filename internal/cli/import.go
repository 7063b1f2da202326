package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vorvix/zato/internal/diag"
	"github.com/vorvix/zato/internal/document"
	"github.com/vorvix/zato/internal/reconcile"
	"github.com/vorvix/zato/internal/report"
)

var (
	importInput         string
	importFormat        string
	importReplace       bool
	importIgnoreMissing bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a configuration document into the cluster",
	Long: `Import applies a local configuration document to the cluster: new
objects are created and, with --replace, already existing ones are
updated. Definitions are always applied before objects depending on
them, and the run stops at the first failing operation.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importInput, "input", "i", "", "Path to the configuration document")
	importCmd.Flags().StringVar(&importFormat, "format", "json", "Document format (json or yaml)")
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "Update objects that already exist in the cluster")
	importCmd.Flags().BoolVar(&importIgnoreMissing, "ignore-missing", false, "Ignore references to missing definitions")
	_ = importCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sess, err := connect(ctx)
	if err != nil {
		return err
	}

	codec, err := document.ForFormat(importFormat)
	if err != nil {
		return err
	}
	doc, parseResult := document.NewParser(importInput, codec, sess.registry).Parse()
	if !parseResult.OK() {
		reportResults(cmd.OutOrStdout(), parseResult)
		return fmt.Errorf("document parsing failed")
	}

	if err := sess.mirror.Refresh(ctx); err != nil {
		return fmt.Errorf("refreshing catalog mirror: %w", err)
	}
	log.Info().Msg("cluster objects read")

	importer := reconcile.NewImporter(sess.client, sess.registry, sess.mirror, doc, importIgnoreMissing, log)

	validation := importer.ValidateImportData(ctx)
	if !validation.OK() {
		reportResults(cmd.OutOrStdout(), validation)
		return fmt.Errorf("import validation failed")
	}

	alreadyExisting := importer.FindAlreadyExisting()
	if alreadyExisting.HasErrors() || (!alreadyExisting.OK() && !importReplace) {
		reportResults(cmd.OutOrStdout(), alreadyExisting)
		return fmt.Errorf("objects already exist in the cluster; use --replace to update them")
	}

	final := importer.Import(ctx, alreadyExisting)
	if reportResults(cmd.OutOrStdout(), final); final.HasErrors() {
		return fmt.Errorf("import failed")
	}
	return nil
}

// reportResults renders the results table; a clean run prints nothing.
func reportResults(w io.Writer, results ...*diag.Result) {
	if _, _, err := report.Render(w, results, colsWidth); err != nil {
		log.Error().Err(err).Msg("could not render report")
	}
}
