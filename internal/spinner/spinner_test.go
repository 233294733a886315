package spinner

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// syncBuffer is a goroutine-safe writer for capturing spinner output.
type syncBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestSpinnerWritesAndClears(t *testing.T) {
	var buf syncBuffer
	s := Start(&buf, "downloading")
	time.Sleep(200 * time.Millisecond)
	s.Update("downloading 1024 bytes")
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	out := buf.String()
	assert.Contains(t, out, "downloading")
	assert.True(t, strings.HasSuffix(out, "\r"), "line is cleared on stop")
}

func TestSpinnerStopTwice(t *testing.T) {
	var buf syncBuffer
	s := Start(&buf, "working")
	s.Stop()
	s.Stop()
}
