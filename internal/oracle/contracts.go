// Package oracle defines the citation-verification boundary: the record
// shape the external oracle must produce, the JSON Schema it is validated
// against, and the transport-failure taxonomy.
package oracle

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Status is the closed verification status enum. Oracle responses carrying
// anything else are rejected at the boundary.
type Status string

// Stable values (store these exact strings in DB).
const (
	StatusVerified  Status = "VERIFIED"
	StatusOverruled Status = "OVERRULED"
	StatusIncorrect Status = "INCORRECT"
	StatusModified  Status = "MODIFIED"
)

// Statuses lists every valid status value.
var Statuses = []Status{StatusVerified, StatusOverruled, StatusIncorrect, StatusModified}

// Transport/format failure taxonomy. The oracle's legal accuracy is outside
// this system's responsibility; these classify only how a call failed.
var (
	ErrUnavailable   = errors.New("oracle unavailable")
	ErrRateLimited   = errors.New("oracle rate limited")
	ErrMalformed     = errors.New("oracle response malformed")
	ErrInputTooLarge = errors.New("input too large for oracle")
)

// CitationRecord is one legal citation found in the submitted text,
// annotated with its verification outcome. OriginalText is the verbatim
// substring matched in the assembled document; CorrectedText equals
// OriginalText when the status is VERIFIED. Immutable after creation.
type CitationRecord struct {
	ID            uuid.UUID `json:"id"`
	OriginalText  string    `json:"original_text"`
	CorrectedText string    `json:"corrected_text"`
	Status        Status    `json:"status"`
	CourtName     string    `json:"court_name,omitempty"`
	DecisionDate  string    `json:"decision_date,omitempty"`
	Note          string    `json:"note,omitempty"`
	Sources       []string  `json:"sources,omitempty"`
	Pinpoint      string    `json:"pinpoint_reference,omitempty"`
}

// VerifyRequest is the single-call submission of assembled document text.
type VerifyRequest struct {
	Text         string
	DocumentHint string // filename or case title, prompt context only
}

// CitationVerifier is the interface the verification stage depends on.
// Implementations perform one oracle call per request; retry policy belongs
// to the caller.
type CitationVerifier interface {
	VerifyCitations(ctx context.Context, req VerifyRequest) ([]CitationRecord, []byte /*rawJSON*/, error)
}
