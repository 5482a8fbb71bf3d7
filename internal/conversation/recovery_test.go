package conversation

import (
	"reflect"
	"testing"

	"github.com/cloudwego/eino/schema"
)

const cancelNote = "Canceled by user before a result was recorded."

func assistantWithCalls(ids ...string) *schema.Message {
	calls := make([]schema.ToolCall, len(ids))
	for i, id := range ids {
		calls[i] = schema.ToolCall{ID: id, Function: schema.FunctionCall{Name: "exec"}}
	}
	return &schema.Message{Role: schema.Assistant, ToolCalls: calls}
}

func toolResult(id, content string) *schema.Message {
	return &schema.Message{Role: schema.Tool, ToolCallID: id, Content: content}
}

func TestPatch_ClosesDanglingToolCall(t *testing.T) {
	messages := []*schema.Message{
		{Role: schema.User, Content: "list the files"},
		assistantWithCalls("call-1"),
	}

	patched, inserted := Patch(messages, cancelNote)

	if inserted != 1 {
		t.Fatalf("expected 1 insertion, got %d", inserted)
	}
	last := patched[len(patched)-1]
	if last.Role != schema.Tool || last.ToolCallID != "call-1" || last.Content != cancelNote {
		t.Fatalf("unexpected synthetic result: %+v", last)
	}
}

func TestPatch_InsertsWhereTheRealResultWouldBe(t *testing.T) {
	messages := []*schema.Message{
		assistantWithCalls("call-1", "call-2"),
		toolResult("call-1", "done"),
		{Role: schema.Assistant, Content: "partial answer"},
	}

	patched, inserted := Patch(messages, cancelNote)

	if inserted != 1 {
		t.Fatalf("expected 1 insertion, got %d", inserted)
	}
	// Synthetic result for call-2 must sit with the other results for that
	// assistant message, before the trailing assistant content.
	if patched[2].ToolCallID != "call-2" {
		t.Fatalf("synthetic result out of position: %+v", patched[2])
	}
	if patched[3].Content != "partial answer" {
		t.Fatalf("trailing message not preserved: %+v", patched[3])
	}
}

func TestPatch_IsIdempotent(t *testing.T) {
	messages := []*schema.Message{
		{Role: schema.User, Content: "hi"},
		assistantWithCalls("call-1", "call-2"),
		toolResult("call-1", "ok"),
	}

	once, n1 := Patch(messages, cancelNote)
	twice, n2 := Patch(once, cancelNote)

	if n1 != 1 {
		t.Fatalf("first pass: expected 1 insertion, got %d", n1)
	}
	if n2 != 0 {
		t.Fatalf("second pass must be a no-op, inserted %d", n2)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("second pass altered the record")
	}
}

func TestPatch_DoesNotTouchAnsweredCalls(t *testing.T) {
	messages := []*schema.Message{
		assistantWithCalls("call-1"),
		toolResult("call-1", "real output"),
	}

	patched, inserted := Patch(messages, cancelNote)

	if inserted != 0 {
		t.Fatalf("expected no insertions, got %d", inserted)
	}
	if patched[1].Content != "real output" {
		t.Fatalf("existing result was altered: %+v", patched[1])
	}
}

func TestPatch_PreservesPriorTurnsExactly(t *testing.T) {
	messages := []*schema.Message{
		{Role: schema.User, Content: "turn one"},
		assistantWithCalls("old-1"),
		toolResult("old-1", "old result"),
		{Role: schema.Assistant, Content: "turn one answer"},
		{Role: schema.User, Content: "turn two"},
		assistantWithCalls("new-1"),
	}

	patched, inserted := Patch(messages, cancelNote)

	if inserted != 1 {
		t.Fatalf("expected 1 insertion, got %d", inserted)
	}
	for i := 0; i < 6; i++ {
		if patched[i] != messages[i] {
			t.Fatalf("message %d was not preserved in place", i)
		}
	}
}

func TestRecord_CloseInterruptedPatchesOnlyCurrentTurn(t *testing.T) {
	rec := &Record{Key: "cli:direct"}
	rec.Append(
		&schema.Message{Role: schema.User, Content: "first"},
		assistantWithCalls("a1"),
		toolResult("a1", "ok"),
	)
	rec.BeginTurn()
	rec.Append(
		&schema.Message{Role: schema.User, Content: "second"},
		assistantWithCalls("b1"),
	)

	if n := rec.CloseInterrupted(cancelNote); n != 1 {
		t.Fatalf("expected 1 insertion, got %d", n)
	}
	if n := rec.CloseInterrupted(cancelNote); n != 0 {
		t.Fatalf("second close must be a no-op, got %d", n)
	}

	msgs := rec.Messages()
	last := msgs[len(msgs)-1]
	if last.ToolCallID != "b1" || last.Content != cancelNote {
		t.Fatalf("unexpected tail message: %+v", last)
	}
}
