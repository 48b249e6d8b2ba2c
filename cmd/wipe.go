package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

var wipeConfirmed bool

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Destroy the whole vector collection",
	Long: `Removes every stored chunk for every user. Meant for full rebuild
workflows; there is no per-user variant and no undo.`,
	RunE: runWipe,
}

func init() {
	wipeCmd.Flags().BoolVar(&wipeConfirmed, "yes", false, "confirm destruction of all indexed data")
	rootCmd.AddCommand(wipeCmd)
}

func runWipe(cmd *cobra.Command, _ []string) error {
	if !wipeConfirmed {
		return errors.New("refusing to wipe without --yes")
	}

	ctx := cmd.Context()
	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.VecStore.WipeAll(ctx); err != nil {
		return err
	}
	cmd.Println("Vector collection wiped.")
	return nil
}
