package streamer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"penarm/protocol"
)

// fakeLink answers every batch of sent lines with the replies queued by the
// test
type fakeLink struct {
	replies chan string
	sent    []string
	err     error
}

func newFakeLink() *fakeLink {
	return &fakeLink{replies: make(chan string, 64)}
}

func (l *fakeLink) SendLine(line string) error {
	if l.err != nil {
		return l.err
	}
	l.sent = append(l.sent, line)
	return nil
}

func (l *fakeLink) Replies() <-chan string {
	return l.replies
}

func TestFeederWindow(t *testing.T) {
	lines := []string{"START", "(1, 1)", "PEN DOWN", "(2, 2)", "PEN UP", "END"}
	f := NewFeeder(lines, 4)

	if batch := f.Handle(protocol.SignalReady); batch != nil {
		t.Errorf("The banner should not release lines, got %v", batch)
	}
	if batch := f.Handle(protocol.SignalRequest); len(batch) != 4 || batch[0] != "START" {
		t.Errorf("Expected the first 4 lines, got %v", batch)
	}
	if f.Done() || f.Remaining() != 2 {
		t.Errorf("Expected 2 remaining, got %d", f.Remaining())
	}
	if batch := f.Handle(protocol.SignalRequest); len(batch) != 2 || batch[1] != "END" {
		t.Errorf("Expected the last 2 lines, got %v", batch)
	}
	if !f.Done() {
		t.Error("Feeder should be done")
	}

	f.Handle(protocol.SignalBufferFull)
	f.Handle(protocol.SignalInvalidNumbers)
	f.Handle(protocol.SignalInvalidFormat)

	res := f.Result()
	if res.Sent != 6 || res.Requests != 2 || res.BufferFull != 1 || res.Invalid != 2 || !res.Ready {
		t.Errorf("Unexpected result %+v", res)
	}
}

func TestStreamerRun(t *testing.T) {
	link := newFakeLink()
	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, fmt.Sprintf("(%d, %d)", i, i))
	}

	link.replies <- protocol.SignalReady
	for i := 0; i < 4; i++ {
		link.replies <- protocol.SignalRequest
	}

	s := New(link, Options{Window: 3, IdleTimeout: time.Second})
	res, err := s.Run(context.Background(), lines)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(link.sent) != 10 || link.sent[9] != "(9, 9)" {
		t.Errorf("Expected all 10 lines in order, got %v", link.sent)
	}
	if res.Requests != 4 || !res.Ready {
		t.Errorf("Unexpected result %+v", res)
	}
}

func TestStreamerIdleTimeout(t *testing.T) {
	link := newFakeLink()
	link.replies <- protocol.SignalRequest

	s := New(link, Options{Window: 1, IdleTimeout: 20 * time.Millisecond})
	res, err := s.Run(context.Background(), []string{"START", "END"})
	if !errors.Is(err, ErrIdleTimeout) {
		t.Fatalf("Expected ErrIdleTimeout, got %v", err)
	}
	if res.Sent != 1 {
		t.Errorf("Expected 1 line sent before the timeout, got %d", res.Sent)
	}
}

func TestStreamerCancel(t *testing.T) {
	link := newFakeLink()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(link, Options{}).Run(ctx, []string{"START"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestStreamerLinkErrors(t *testing.T) {
	link := newFakeLink()
	close(link.replies)
	if _, err := New(link, Options{}).Run(context.Background(), []string{"START"}); !errors.Is(err, ErrLinkClosed) {
		t.Errorf("Expected ErrLinkClosed, got %v", err)
	}

	link = newFakeLink()
	link.err = errors.New("write failed")
	link.replies <- protocol.SignalRequest
	if _, err := New(link, Options{}).Run(context.Background(), []string{"START"}); err == nil {
		t.Error("Expected the send error to be returned")
	}
}

func TestStreamerEmpty(t *testing.T) {
	res, err := New(newFakeLink(), Options{}).Run(context.Background(), nil)
	if err != nil || res.Sent != 0 {
		t.Errorf("Empty input should finish at once, got %+v %v", res, err)
	}
}
