package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show tracked documents and their processing state",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	svc, err := retrievalProvider.Get(cmd.Context())
	if err != nil {
		return err
	}

	summaries, err := svc.Summaries(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if len(summaries) == 0 {
		cmd.Println("No documents tracked.")
		return nil
	}

	for _, s := range summaries {
		cmd.Printf("%-12s %-10s v%-3d %4d chunks  %s\n",
			s.Status, s.Kind, s.Version, s.ChunkCount, s.Title)
		if s.FailureReason != "" {
			cmd.Printf("             reason: %s\n", s.FailureReason)
		}
	}

	cmd.Printf("\nLast failure indicator: %s\n", svc.ErrorState())
	return nil
}
