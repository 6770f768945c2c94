package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// syncBuffer provides thread-safe access to a bytes.Buffer.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (s *syncBuffer) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestNewInterruptHandler(t *testing.T) {
	tests := []struct {
		writer    io.Writer
		name      string
		operation string
		want      string
	}{
		{name: "with custom writer", writer: &bytes.Buffer{}, operation: "Replay", want: "Replay"},
		{name: "with nil writer", writer: nil, operation: "", want: "Operation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewInterruptHandler(tt.writer, tt.operation)
			assert.NotNil(t, handler)
			assert.NotNil(t, handler.writer)
			assert.Equal(t, tt.want, handler.operation)
			assert.False(t, handler.interrupted)
		})
	}
}

func TestHandleInterrupts_CancelsContext(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output, "Replay")

	ctx := handler.HandleInterrupts(context.Background(), func() string { return "spicebot replay --skip 3" })

	select {
	case <-ctx.Done():
		t.Fatal("Context should not be canceled initially")
	default:
	}

	handler.interrupt()

	<-ctx.Done()
	assert.True(t, handler.WasInterrupted())
	out := output.String()
	assert.Contains(t, out, "Replay interrupted!")
	assert.Contains(t, out, "Resume with: spicebot replay --skip 3")
}

func TestHandleInterrupts_ParentCancelIsNotAnInterrupt(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output, "Replay")

	parent, cancel := context.WithCancel(context.Background())
	ctx := handler.HandleInterrupts(parent, nil)
	cancel()
	<-ctx.Done()

	assert.False(t, handler.WasInterrupted())
	assert.Empty(t, output.String())
}

func TestMultipleInterrupts(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output, "Replay")
	_ = handler.HandleInterrupts(context.Background(), nil)

	handler.interrupt()
	handler.interrupt()

	count := strings.Count(output.String(), "Replay interrupted!")
	assert.Equal(t, 1, count, "Interrupt message should only be shown once")
}

func TestShowInterruptMessage(t *testing.T) {
	tests := []struct {
		resumeHint  func() string
		name        string
		expected    []string
		notExpected []string
	}{
		{
			name:       "with resume hint",
			resumeHint: func() string { return "spicebot replay --skip 10 messages.txt" },
			expected: []string{
				"Chat interrupted!",
				"Resume with: spicebot replay --skip 10 messages.txt",
				"See you later!",
			},
		},
		{
			name:        "empty resume hint",
			resumeHint:  func() string { return "" },
			expected:    []string{"Chat interrupted!", "See you later!"},
			notExpected: []string{"Resume with"},
		},
		{
			name:        "without resume hint",
			expected:    []string{"Chat interrupted!", "See you later!"},
			notExpected: []string{"Resume with"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			handler := &InterruptHandler{
				writer:     &output,
				operation:  "Chat",
				resumeHint: tt.resumeHint,
			}

			handler.showInterruptMessage()

			outputStr := output.String()
			for _, expected := range tt.expected {
				assert.Contains(t, outputStr, expected)
			}
			for _, notExpected := range tt.notExpected {
				assert.NotContains(t, outputStr, notExpected)
			}
		})
	}
}
