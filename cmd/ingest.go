package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/okanon/oracle/internal/chunk"
)

var ingestUser string

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Index documents for a user",
	Long: `Reads the given .txt or .md files, chunks and embeds them, and stores
the chunks under the user's knowledge base. Re-ingesting a file appends; it
does not replace earlier chunks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestUser, "user", "u", "", "user the documents belong to (required)")
	_ = ingestCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	files := make([]chunk.File, 0, len(args))
	handles := make([]*os.File, 0, len(args))
	defer func() {
		for _, f := range handles {
			_ = f.Close()
		}
	}()
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		handles = append(handles, f)
		files = append(files, chunk.File{Name: filepath.Base(path), Content: f})
	}

	n, err := a.Assistant.Ingest(ctx, ingestUser, files)
	if err != nil {
		return err
	}

	cmd.Printf("Processed %d file(s) for user %s\n", n, ingestUser)
	return nil
}
