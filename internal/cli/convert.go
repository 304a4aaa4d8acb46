package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/arodsan/convoset/internal/config"
	"github.com/arodsan/convoset/internal/export"
	"github.com/arodsan/convoset/internal/ingest"
	"github.com/arodsan/convoset/internal/segment"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a message export into a training dataset",
	RunE:  runConvert,
}

var (
	messagesPath      string
	aliasesPath       string
	outputPath        string
	formatName        string
	timeThreshold     int
	maxMessages       int
	interchangeOnly   bool
	groupConsecutive  bool
	groupSeparator    string
	includeTimestamps bool
)

func init() {
	rootCmd.AddCommand(convertCmd)

	f := convertCmd.Flags()
	addSegmentationFlags(f)
	f.StringVarP(&outputPath, "output", "o", "", "output file path")
	f.StringVarP(&formatName, "format", "f", "", "output format (chatml, text, jsonl)")
	f.BoolVar(&includeTimestamps, "timestamps", false, "prefix text-format lines with timestamps")
}

// addSegmentationFlags registers the flags shared by convert and stats.
func addSegmentationFlags(f *pflag.FlagSet) {
	f.StringVarP(&messagesPath, "messages", "m", "", "message export file or directory")
	f.StringVarP(&aliasesPath, "aliases", "a", "", "role to sender alias file (JSON)")
	f.IntVar(&timeThreshold, "time-threshold", 0, "max gap in seconds within a conversation")
	f.IntVar(&maxMessages, "max-messages", 0, "max messages per conversation")
	f.BoolVar(&interchangeOnly, "interchange-only", true, "keep only conversations with two or more senders")
	f.BoolVar(&groupConsecutive, "group-consecutive", false, "merge adjacent messages from the same sender")
	f.StringVar(&groupSeparator, "group-separator", "", "separator used when merging consecutive messages")
}

// resolveConfig loads the configuration and layers any flags the user set
// on this invocation over it.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	f := cmd.Flags()
	if f.Changed("messages") {
		cfg.MessagesPath = messagesPath
	}
	if f.Changed("aliases") {
		cfg.AliasesPath = aliasesPath
	}
	if f.Changed("output") {
		cfg.OutputPath = outputPath
	}
	if f.Changed("format") {
		cfg.Format = formatName
	}
	if f.Changed("time-threshold") {
		cfg.TimeThresholdSeconds = timeThreshold
	}
	if f.Changed("max-messages") {
		cfg.MaxMessages = maxMessages
	}
	if f.Changed("interchange-only") {
		cfg.InterchangeOnly = interchangeOnly
	}
	if f.Changed("group-consecutive") {
		cfg.GroupConsecutive = groupConsecutive
	}
	if f.Changed("group-separator") {
		cfg.GroupSeparator = groupSeparator
	}
	if f.Changed("timestamps") {
		cfg.IncludeTimestamps = includeTimestamps
	}
	return cfg, nil
}

func paramsFrom(cfg config.Config) segment.Params {
	return segment.Params{
		TimeThreshold:    time.Duration(cfg.TimeThresholdSeconds) * time.Second,
		InterchangeOnly:  cfg.InterchangeOnly,
		MaxMessages:      cfg.MaxMessages,
		GroupConsecutive: cfg.GroupConsecutive,
		GroupSeparator:   cfg.GroupSeparator,
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)
	logger := slog.Default()

	// Validate the format before touching any input.
	format, err := export.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	archive, err := ingest.LoadArchive(cfg.MessagesPath, logger)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}
	aliases := ingest.LoadAliases(cfg.AliasesPath, logger)
	logger.Info("archive loaded",
		"source", cfg.MessagesPath,
		"messages", len(archive.Messages),
		"aliases", aliases.Len(),
	)

	result := segment.Segment(archive, aliases, paramsFrom(cfg), logger)

	if err := export.WriteFile(cfg.OutputPath, result.Conversations, format, cfg.IncludeTimestamps); err != nil {
		return err
	}
	logger.Info("dataset written",
		"run_id", result.RunID.String(),
		"path", cfg.OutputPath,
		"format", string(format),
		"conversations", result.Stats.TotalConversations,
	)
	return nil
}
