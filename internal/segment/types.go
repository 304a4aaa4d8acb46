package segment

import (
	"time"

	"github.com/google/uuid"
)

// Message is one processed record. It is owned by the conversation that
// contains it and never mutated after the run finishes.
type Message struct {
	Sender      string `json:"sender"`
	Content     string `json:"content"`
	TimestampMS int64  `json:"timestamp_ms"`
	Timestamp   string `json:"timestamp,omitempty"` // RFC 3339, empty when timestamp_ms is 0
}

// Conversation is a run of chronologically close messages, ordered by
// timestamp ascending, treated as one training example.
type Conversation []Message

// Params control how the message stream is partitioned.
type Params struct {
	// TimeThreshold is the max gap between consecutive messages once the
	// conversation holds messages from two or more senders.
	TimeThreshold time.Duration

	// InterchangeOnly discards conversations with fewer than two distinct
	// senders at close time.
	InterchangeOnly bool

	// MaxMessages is the hard cap per conversation; an over-long run is
	// split regardless of timing.
	MaxMessages int

	// GroupConsecutive merges adjacent same-sender messages after
	// partitioning.
	GroupConsecutive bool

	// GroupSeparator joins contents when consecutive messages merge.
	GroupSeparator string
}

// extendedThreshold is the gap allowed while a conversation still has a
// single sender. Fixed, not derived from TimeThreshold.
const extendedThreshold = 60 * time.Second

// DefaultParams returns the standard segmentation parameters.
func DefaultParams() Params {
	return Params{
		TimeThreshold:   30 * time.Second,
		InterchangeOnly: true,
		MaxMessages:     10,
		GroupSeparator:  ", ",
	}
}

// Stats summarizes one conversion run. Populated during segmentation and
// read-only afterwards.
type Stats struct {
	TotalMessages       int      `json:"total_messages"`
	MessagesWithContent int      `json:"messages_with_content"`
	TotalConversations  int      `json:"total_conversations"`
	Participants        []string `json:"participants"`
}

// Result is everything one conversion run produced.
type Result struct {
	RunID         uuid.UUID
	Conversations []Conversation
	Stats         Stats
}
