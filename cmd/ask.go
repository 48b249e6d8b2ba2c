package cmd

import (
	"github.com/spf13/cobra"
)

var askUser string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question against a user's documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askUser, "user", "u", "", "user whose documents to search (required)")
	_ = askCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	answer, err := a.Assistant.Query(ctx, askUser, args[0], nil)
	if err != nil {
		return err
	}

	cmd.Println(answer.Text)
	if len(answer.Sources) > 0 {
		cmd.Println("\nSources:")
		for i, s := range answer.Sources {
			cmd.Printf("  %d. %s (%s) score=%.3f\n     %s\n",
				i+1, s.FileName, s.SectionLabel, s.Score, s.Snippet)
		}
	}
	return nil
}
