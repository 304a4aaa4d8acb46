package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/arodsan/convoset/internal/ingest"
	"github.com/arodsan/convoset/internal/segment"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report ingestion and segmentation statistics",
	Long: `Stats runs ingestion and segmentation without writing a dataset and
prints the resulting counters as JSON.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	addSegmentationFlags(statsCmd.Flags())
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)
	logger := slog.Default()

	archive, err := ingest.LoadArchive(cfg.MessagesPath, logger)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}
	aliases := ingest.LoadAliases(cfg.AliasesPath, logger)

	result := segment.Segment(archive, aliases, paramsFrom(cfg), logger)

	out, err := json.MarshalIndent(result.Stats, "", "  ")
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
