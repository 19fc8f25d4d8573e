package verify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/citecheck/internal/oracle"
)

// State of one verification submission.
type State string

const (
	StateIdle      State = "IDLE"
	StateSubmitted State = "SUBMITTED"
	StateSucceeded State = "SUCCEEDED"
	StateFailed    State = "FAILED"
)

// Result is the terminal outcome of one submission. Records is valid only
// when Err is nil; zero records is a valid success ("no citations found").
type Result struct {
	Records []oracle.CitationRecord
	Summary Summary
	RawJSON []byte
	Err     error
}

// Verifier submits assembled text to the oracle in a single call and tracks
// the Idle → Submitted → Succeeded | Failed state machine. It performs no
// text transformation and no automatic retries; a fresh Verifier is one
// submission.
type Verifier struct {
	client oracle.CitationVerifier
	logger *slog.Logger

	mu    sync.Mutex
	state State
}

func NewVerifier(client oracle.CitationVerifier, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{client: client, logger: logger, state: StateIdle}
}

// State returns the current submission state.
func (v *Verifier) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Submit sends the text to the oracle and settles the state machine. A
// second Submit on the same Verifier is a programming error.
func (v *Verifier) Submit(ctx context.Context, req oracle.VerifyRequest) Result {
	v.mu.Lock()
	if v.state != StateIdle {
		v.mu.Unlock()
		return Result{Err: fmt.Errorf("verifier already used (state=%s)", v.state)}
	}
	v.state = StateSubmitted
	v.mu.Unlock()

	start := time.Now()
	records, raw, err := v.client.VerifyCitations(ctx, req)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.state = StateFailed
		v.logger.Error("verify.submit.failed",
			"text_len", len(req.Text),
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return Result{RawJSON: raw, Err: err}
	}

	v.state = StateSucceeded
	summary := Summarize(records)
	v.logger.Info("verify.submit.ok",
		"records", summary.Total,
		"verified", summary.Verified,
		"overruled", summary.Overruled,
		"incorrect", summary.Incorrect,
		"modified", summary.Modified,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Result{Records: records, Summary: summary, RawJSON: raw}
}
