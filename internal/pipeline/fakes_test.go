package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dgallion1/summariq/internal/delivery"
)

type fakeExtractor struct {
	text  string
	err   error
	calls atomic.Int32
}

func (f *fakeExtractor) Extract(data []byte, ext string) (string, error) {
	f.calls.Add(1)
	return f.text, f.err
}

// fakeSummarizer prefixes each chunk with "S:". Chunks listed in fail return
// that error; chunks listed in block wait for cancellation.
type fakeSummarizer struct {
	mu     sync.Mutex
	inputs []string
	fail   map[string]error
	block  map[string]bool
}

func (f *fakeSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, text)
	err := f.fail[text]
	block := f.block[text]
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return "S:" + text, nil
}

func (f *fakeSummarizer) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.inputs...)
}

type fakeRenderer struct {
	err   error
	input string
}

func (f *fakeRenderer) Render(summary string) ([]byte, error) {
	f.input = summary
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-" + summary), nil
}

type fakeSender struct {
	err  error
	sent []delivery.Message
}

func (f *fakeSender) Send(ctx context.Context, msg delivery.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

var errBoom = errors.New("boom")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func textOfLen(n int, ch string) string {
	return strings.Repeat(ch, n)
}
