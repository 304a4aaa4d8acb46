package segment

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arodsan/convoset/internal/ingest"
)

// attachmentPlaceholder is the platform-generated text for "you sent an
// attachment"; it carries no conversational content and gets rewritten to
// a readable marker.
const attachmentPlaceholder = "enviaste un archivo adjunto."

// Segment partitions an archive's messages into conversations. Records
// without content are dropped, the rest are sorted by timestamp (stable,
// so equal timestamps keep ingestion order) and streamed through the
// grouping accumulator.
func Segment(archive *ingest.Archive, aliases ingest.AliasTable, params Params, logger *slog.Logger) Result {
	if params.MaxMessages <= 0 {
		params.MaxMessages = DefaultParams().MaxMessages
	}
	if params.TimeThreshold <= 0 {
		params.TimeThreshold = DefaultParams().TimeThreshold
	}

	res := Result{RunID: uuid.New()}
	res.Stats.TotalMessages = len(archive.Messages)
	res.Stats.Participants = archive.Participants

	kept := make([]ingest.RawMessage, 0, len(archive.Messages))
	for _, m := range archive.Messages {
		if m.Content != nil {
			kept = append(kept, m)
		}
	}
	res.Stats.MessagesWithContent = len(kept)

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].TimestampMS < kept[j].TimestampMS
	})

	acc := accumulator{params: params}
	for _, raw := range kept {
		acc.add(process(raw, aliases))
	}
	res.Conversations = acc.finish()
	res.Stats.TotalConversations = len(res.Conversations)

	if logger != nil {
		logger.Info("segmentation complete",
			"run_id", res.RunID.String(),
			"total_messages", res.Stats.TotalMessages,
			"with_content", res.Stats.MessagesWithContent,
			"conversations", res.Stats.TotalConversations,
		)
	}
	return res
}

// process resolves the sender alias and rewrites the attachment
// placeholder. Callers guarantee Content is present.
func process(raw ingest.RawMessage, aliases ingest.AliasTable) Message {
	sender := aliases.Resolve(raw.SenderName)
	content := *raw.Content

	if strings.ToLower(strings.TrimSpace(content)) == attachmentPlaceholder {
		shareText := ""
		if raw.Share != nil {
			shareText = strings.TrimSpace(raw.Share.ShareText)
		}
		if shareText != "" {
			content = fmt.Sprintf("[image from %s: %s]", sender, shareText)
		} else {
			content = fmt.Sprintf("[image from %s]", sender)
		}
	}

	msg := Message{
		Sender:      sender,
		Content:     content,
		TimestampMS: raw.TimestampMS,
	}
	if raw.TimestampMS != 0 {
		msg.Timestamp = time.UnixMilli(raw.TimestampMS).Format(time.RFC3339)
	}
	return msg
}

// accumulator carries the open conversation through the streaming
// partition. All state is local to one Segment call.
type accumulator struct {
	params Params
	open   Conversation
	done   []Conversation
}

func (a *accumulator) add(msg Message) {
	if len(a.open) == 0 {
		a.open = Conversation{msg}
		return
	}

	// The cap is checked before the gap test, so a long monologue splits
	// every MaxMessages messages regardless of gap size.
	if len(a.open) >= a.params.MaxMessages {
		a.close()
		a.open = Conversation{msg}
		return
	}

	last := a.open[len(a.open)-1]
	gap := time.Duration(abs64(msg.TimestampMS-last.TimestampMS)) * time.Millisecond

	// Until two senders have appeared the extended threshold applies.
	threshold := extendedThreshold
	if distinctSenders(a.open) >= 2 {
		threshold = a.params.TimeThreshold
	}

	if gap <= threshold {
		a.open = append(a.open, msg)
		return
	}

	a.close()
	a.open = Conversation{msg}
}

// close emits the open conversation if it passes the validity gate.
func (a *accumulator) close() {
	if len(a.open) == 0 {
		return
	}
	if !a.params.InterchangeOnly || distinctSenders(a.open) >= 2 {
		a.done = append(a.done, a.open)
	}
	a.open = nil
}

func (a *accumulator) finish() []Conversation {
	a.close()
	if a.params.GroupConsecutive {
		for i, conv := range a.done {
			a.done[i] = mergeConsecutive(conv, a.params.GroupSeparator)
		}
	}
	return a.done
}

// mergeConsecutive collapses adjacent same-sender messages into one,
// concatenating contents and keeping the timestamp of the last message in
// the run.
func mergeConsecutive(conv Conversation, sep string) Conversation {
	if len(conv) == 0 {
		return conv
	}
	merged := Conversation{conv[0]}
	for _, msg := range conv[1:] {
		last := &merged[len(merged)-1]
		if last.Sender == msg.Sender {
			last.Content += sep + msg.Content
			last.TimestampMS = msg.TimestampMS
			last.Timestamp = msg.Timestamp
		} else {
			merged = append(merged, msg)
		}
	}
	return merged
}

func distinctSenders(conv Conversation) int {
	seen := make(map[string]struct{}, 2)
	for _, m := range conv {
		seen[m.Sender] = struct{}{}
	}
	return len(seen)
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
