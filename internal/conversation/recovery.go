package conversation

import "github.com/cloudwego/eino/schema"

// Patch closes out every dangling tool call in messages: an assistant tool
// call with no tool-role result (left behind when a human cancels mid-turn)
// gets a synthetic result carrying note, inserted where the real result
// would have gone. Pure and idempotent: patching an already-patched slice
// inserts nothing, messages that have results are never altered, and the
// order of everything else is preserved.
//
// Returns the patched slice and the number of results inserted.
func Patch(messages []*schema.Message, note string) ([]*schema.Message, int) {
	answered := make(map[string]struct{})
	for _, msg := range messages {
		if msg.Role == schema.Tool && msg.ToolCallID != "" {
			answered[msg.ToolCallID] = struct{}{}
		}
	}

	out := make([]*schema.Message, 0, len(messages))
	inserted := 0

	for i := 0; i < len(messages); i++ {
		msg := messages[i]
		out = append(out, msg)

		if msg.Role != schema.Assistant || len(msg.ToolCalls) == 0 {
			continue
		}

		// Keep the results that actually arrived in place, then append the
		// synthetic ones after them, in tool-call order.
		for i+1 < len(messages) && messages[i+1].Role == schema.Tool {
			i++
			out = append(out, messages[i])
		}
		for _, tc := range msg.ToolCalls {
			if _, ok := answered[tc.ID]; ok {
				continue
			}
			out = append(out, &schema.Message{
				Role:       schema.Tool,
				ToolCallID: tc.ID,
				Content:    note,
			})
			inserted++
		}
	}

	return out, inserted
}
