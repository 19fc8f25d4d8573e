// Package verify orchestrates the citation-oracle call and aggregates its
// records into summary statistics.
package verify

import "github.com/joseph-ayodele/citecheck/internal/oracle"

// Summary holds derived counts over a set of citation records. It is a view,
// recomputed on demand, never stored independently.
type Summary struct {
	Total     int `json:"total"`
	Verified  int `json:"verified"`
	Overruled int `json:"overruled"`
	Incorrect int `json:"incorrect"`
	Modified  int `json:"modified"`
}

// Summarize counts records by status. An empty input yields an all-zero
// summary; the status counts always sum to Total.
func Summarize(records []oracle.CitationRecord) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		switch r.Status {
		case oracle.StatusVerified:
			s.Verified++
		case oracle.StatusOverruled:
			s.Overruled++
		case oracle.StatusIncorrect:
			s.Incorrect++
		case oracle.StatusModified:
			s.Modified++
		}
	}
	return s
}
