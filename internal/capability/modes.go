package capability

import "fmt"

// ParallelMode governs how many sessions exist concurrently and how they are
// shared across tests.
type ParallelMode string

const (
	// ModeNone keeps a single session for the whole run.
	ModeNone ParallelMode = "none"
	// ModePerTest creates and destroys one session per test.
	ModePerTest ParallelMode = "per-test"
	// ModePerWorker gives each concurrent worker one session, reused across
	// the tests that worker executes.
	ModePerWorker ParallelMode = "per-worker"
)

// ParseParallelMode interprets the CLI mode string, defaulting to none.
func ParseParallelMode(s string) (ParallelMode, error) {
	switch ParallelMode(NormalizeKey(s)) {
	case "":
		return ModeNone, nil
	case ModeNone:
		return ModeNone, nil
	case ModePerTest:
		return ModePerTest, nil
	case ModePerWorker:
		return ModePerWorker, nil
	default:
		return "", &ValidationError{
			Field:  "parallel-mode",
			Reason: fmt.Sprintf("%q is not one of none, per-test, per-worker", s),
		}
	}
}

// ValidateRun rejects browser/mode combinations that cannot work, before any
// session is constructed.
func ValidateRun(browsers []string, mode ParallelMode) error {
	if len(browsers) > 1 && mode == ModeNone {
		return &ValidationError{
			Field: "parallel-mode",
			Reason: fmt.Sprintf("%d browsers requested but parallel mode is %q; "+
				"a single shared session cannot serve multiple browsers", len(browsers), ModeNone),
		}
	}
	return nil
}
