// Package assertion provides soft assertions: checks that record failures
// without stopping the test, flushed in one batch at test end.
package assertion

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// TestingT is the subset of testing.TB the flusher needs.
type TestingT interface {
	Helper()
	Errorf(format string, args ...any)
}

// Soft collects assertion failures. Create one per test; state is never
// shared across tests.
type Soft struct {
	mu       sync.Mutex
	failures []string
}

// NewSoft returns a fresh collector.
func NewSoft() *Soft {
	return &Soft{}
}

func (s *Soft) record(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, fmt.Sprintf(format, args...))
}

// True records a failure unless cond holds.
func (s *Soft) True(cond bool, format string, args ...any) bool {
	if !cond {
		s.record(format, args...)
	}
	return cond
}

// Equal records a failure unless want and got are deeply equal.
func (s *Soft) Equal(want, got any, desc string) bool {
	if reflect.DeepEqual(want, got) {
		return true
	}
	s.record("%s: want %v, got %v", desc, want, got)
	return false
}

// Contains records a failure unless haystack contains needle.
func (s *Soft) Contains(haystack, needle, desc string) bool {
	if strings.Contains(haystack, needle) {
		return true
	}
	s.record("%s: %q does not contain %q", desc, haystack, needle)
	return false
}

// NoError records err as a failure when non-nil.
func (s *Soft) NoError(err error, desc string) bool {
	if err == nil {
		return true
	}
	s.record("%s: unexpected error: %v", desc, err)
	return false
}

// Failures returns the recorded failures so far.
func (s *Soft) Failures() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.failures...)
}

// Err returns all recorded failures as one error, or nil.
func (s *Soft) Err() error {
	failures := s.Failures()
	if len(failures) == 0 {
		return nil
	}
	return fmt.Errorf("%d soft assertion(s) failed:\n  %s", len(failures), strings.Join(failures, "\n  "))
}

// Flush reports every recorded failure on t. Call it at test end regardless
// of outcome; the harness wires it into t.Cleanup.
func (s *Soft) Flush(t TestingT) {
	t.Helper()
	for _, failure := range s.Failures() {
		t.Errorf("soft assertion failed: %s", failure)
	}
}
