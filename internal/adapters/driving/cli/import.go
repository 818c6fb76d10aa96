package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var importName string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import content into the index",
}

var importFileCmd = &cobra.Command{
	Use:   "file [path]",
	Short: "Import a file",
	Long: `Imports a file under a content-addressed identifier derived from
its bytes. Re-importing identical content yields the identical id.`,
	Args: cobra.ExactArgs(1),
	RunE: runImportFile,
}

var importTextCmd = &cobra.Command{
	Use:   "text [text]",
	Short: "Import free text",
	Long: `Imports free text (or stdin with "-") under a content-addressed
identifier. Use --name to label the note; otherwise a name is derived
from the content hash.`,
	Args: cobra.ExactArgs(1),
	RunE: runImportText,
}

func init() {
	importTextCmd.Flags().StringVar(&importName, "name", "", "display name for the note")
	importCmd.AddCommand(importFileCmd)
	importCmd.AddCommand(importTextCmd)
	rootCmd.AddCommand(importCmd)
}

func runImportFile(cmd *cobra.Command, args []string) error {
	svc, err := retrievalProvider.Get(cmd.Context())
	if err != nil {
		return err
	}

	pages, chunks, err := svc.ImportFile(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	cmd.Printf("Imported %s: %d pages, %d chunks\n", args[0], pages, chunks)
	return nil
}

func runImportText(cmd *cobra.Command, args []string) error {
	svc, err := retrievalProvider.Get(cmd.Context())
	if err != nil {
		return err
	}

	text := args[0]
	if text == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	}

	chars, chunks, err := svc.ImportFreeText(cmd.Context(), text, importName)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	cmd.Printf("Imported %d chars, %d chunks\n", chars, chunks)
	return nil
}
