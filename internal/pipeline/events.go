// Package pipeline runs the hybrid per-page extraction and assembles the
// results into one ordered document.
package pipeline

// Stage names for progress events.
type Stage string

const (
	StageOpen      Stage = "open"
	StageRasterize Stage = "rasterize"
	StageOCR       Stage = "ocr"
	StagePage      Stage = "page"
	StageAssemble  Stage = "assemble"
)

// Event is one discrete progress notification. Page is 1-based and zero for
// document-level stages. Percent is 0..100 where known, -1 otherwise.
type Event struct {
	Stage      Stage
	Page       int
	TotalPages int
	Percent    int
	Message    string
}

// Reporter receives progress events. Implementations must not block; the
// pipeline behaves identically whether or not a reporter is attached.
type Reporter interface {
	Publish(Event)
}

// NopReporter drops every event.
type NopReporter struct{}

func (NopReporter) Publish(Event) {}

// ChanReporter forwards events onto a channel, dropping them when the
// receiver lags. Useful for wiring progress to a UI without coupling the
// pipeline to it.
type ChanReporter struct {
	C chan Event
}

func NewChanReporter(buf int) *ChanReporter {
	return &ChanReporter{C: make(chan Event, buf)}
}

func (r *ChanReporter) Publish(e Event) {
	select {
	case r.C <- e:
	default:
	}
}

// publish is the nil-safe send used throughout the pipeline.
func publish(r Reporter, e Event) {
	if r != nil {
		r.Publish(e)
	}
}
