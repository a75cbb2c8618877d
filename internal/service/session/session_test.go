package session

import (
	"context"
	"testing"
)

func TestAppendAndHistory(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()

	m.Append(ctx, "t1", Message{ID: "1", Role: "user", Content: "hi", CreatedAt: 1})
	m.Append(ctx, "t1", Message{ID: "2", Role: "assistant", Content: "hello", CreatedAt: 2})

	history := m.History(ctx, "t1")
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}
	if history[0].Content != "hi" || history[1].Content != "hello" {
		t.Errorf("unexpected order: %+v", history)
	}

	// 返回的是副本，修改不影响内部状态
	history[0].Content = "mutated"
	if m.History(ctx, "t1")[0].Content != "hi" {
		t.Error("History must return a copy")
	}
}

func TestClearRemovesThread(t *testing.T) {
	m := NewManager(nil)
	ctx := context.Background()

	m.Append(ctx, "t1", Message{ID: "1", Content: "hi"})
	m.Clear(ctx, "t1")

	if got := m.History(ctx, "t1"); len(got) != 0 {
		t.Errorf("expected empty history after clear, got %d", len(got))
	}
}

// ========== 在途流控制 ==========

func TestRegisterStreamStopsPrevious(t *testing.T) {
	m := NewManager(nil)

	var firstCancelled bool
	first := m.RegisterStream("t1", func() { firstCancelled = true })
	first.AppendChunk("partial")

	second := m.RegisterStream("t1", func() {})
	if !firstCancelled {
		t.Error("registering a new stream must cancel the previous one")
	}
	if !first.IsDone() {
		t.Error("the replaced stream must be marked done")
	}
	if m.GetStream("t1") != second {
		t.Error("GetStream should return the new stream")
	}
}

func TestStopStream(t *testing.T) {
	m := NewManager(nil)

	if m.StopStream("missing") {
		t.Error("stopping an unknown stream must return false")
	}

	var cancelled bool
	m.RegisterStream("t1", func() { cancelled = true })
	if !m.StopStream("t1") {
		t.Fatal("expected StopStream to report success")
	}
	if !cancelled {
		t.Error("cancel func must run")
	}
	if m.GetStream("t1") != nil {
		t.Error("stopped stream must be unregistered")
	}
}

func TestActiveStreamAccumulates(t *testing.T) {
	m := NewManager(nil)
	stream := m.RegisterStream("t1", func() {})

	stream.AppendChunk("He")
	stream.AppendChunk("llo")
	if got := stream.GetContent(); got != "Hello" {
		t.Errorf("expected Hello, got %q", got)
	}

	m.UnregisterStream("t1")
	if !stream.IsDone() {
		t.Error("unregistered stream must be marked done")
	}
}

func TestClearStopsActiveStream(t *testing.T) {
	m := NewManager(nil)

	var cancelled bool
	m.RegisterStream("t1", func() { cancelled = true })
	m.Clear(context.Background(), "t1")

	if !cancelled {
		t.Error("clearing a thread must cancel its active stream")
	}
}
