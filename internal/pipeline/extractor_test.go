package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/citecheck/internal/ocr"
)

// stubSource fabricates pages without touching a real PDF.
type stubSource struct {
	pages      int
	nativeText func(page int) (string, error)
	rasterErr  func(page int) error
}

func (s *stubSource) PageCount() int { return s.pages }

func (s *stubSource) NativeText(_ context.Context, page int) (string, error) {
	if s.nativeText == nil {
		return "", nil
	}
	return s.nativeText(page)
}

func (s *stubSource) Rasterize(_ context.Context, page int) (string, error) {
	if s.rasterErr != nil {
		if err := s.rasterErr(page); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("/tmp/stub-page-%d.png", page), nil
}

// stubEngine recognizes from a per-page text map, with optional per-page
// failures and artificial delay to scramble completion order.
type stubEngine struct {
	mu       sync.Mutex
	text     map[int]string
	fail     map[int]error
	failOnce map[int]error
	delay    func(page int) time.Duration
	calls    atomic.Int32
}

func pageFromImage(imagePath string) int {
	var page int
	_, _ = fmt.Sscanf(imagePath, "/tmp/stub-page-%d.png", &page)
	return page
}

func (e *stubEngine) Recognize(ctx context.Context, imagePath string, opts ocr.RecognizeOptions) (string, error) {
	e.calls.Add(1)
	page := pageFromImage(imagePath)

	if e.delay != nil {
		select {
		case <-time.After(e.delay(page)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err, ok := e.failOnce[page]; ok {
		delete(e.failOnce, page)
		return "", err
	}
	if err, ok := e.fail[page]; ok {
		return "", err
	}
	if opts.Progress != nil {
		opts.Progress(100)
	}
	return e.text[page], nil
}

func TestExtractPreservesPageOrderUnderConcurrency(t *testing.T) {
	const pages = 12
	rng := rand.New(rand.NewSource(99))

	text := map[int]string{}
	delays := map[int]time.Duration{}
	for i := 1; i <= pages; i++ {
		text[i] = fmt.Sprintf("recognized body of page %d with enough characters", i)
		delays[i] = time.Duration(rng.Intn(20)) * time.Millisecond
	}
	engine := &stubEngine{
		text:  text,
		delay: func(p int) time.Duration { return delays[p] },
	}
	src := &stubSource{pages: pages}

	ex := NewExtractor(Config{Workers: 6}, engine, nil, nil)
	doc, err := ex.Extract(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, doc.Pages, pages)
	prev := -1
	for i, p := range doc.Pages {
		assert.Equal(t, i+1, p.Page)
		idx := strings.Index(doc.Text, fmt.Sprintf("recognized body of page %d ", p.Page))
		require.GreaterOrEqual(t, idx, 0)
		assert.Greater(t, idx, prev, "page %d text out of order", p.Page)
		prev = idx
	}
}

// A full native text layer with OCR failing everywhere must still produce
// the native concatenation with page markers and no document-level error.
func TestExtractAllOCRFailingFallsBackToNative(t *testing.T) {
	native := map[int]string{
		1: "The petitioner relies on Maneka Gandhi vs. Union of India.",
		2: "The respondent cites Kesavananda Bharati vs. State of Kerala.",
		3: "Arguments conclude with costs reserved for final hearing.",
	}
	src := &stubSource{
		pages:      3,
		nativeText: func(p int) (string, error) { return native[p], nil },
	}
	engine := &stubEngine{fail: map[int]error{
		1: ocr.ErrOCR, 2: ocr.ErrOCR, 3: ocr.ErrOCR,
	}}

	ex := NewExtractor(Config{Workers: 2}, engine, nil, nil)
	doc, err := ex.Extract(context.Background(), src)
	require.NoError(t, err)

	for p := 1; p <= 3; p++ {
		assert.Equal(t, SourceNative, doc.Pages[p-1].Source)
		assert.Contains(t, doc.Text, PageMarker(p))
		assert.Contains(t, doc.Text, native[p])
	}
}

// One scanned page: no native layer, OCR carries the whole result.
func TestExtractScannedPageUsesOCR(t *testing.T) {
	const citation = "Maneka Gandhi vs. Union of India AIR 1978 SC 597"
	src := &stubSource{pages: 1}
	engine := &stubEngine{text: map[int]string{
		1: citation + " was cited in support of the petition.",
	}}

	ex := NewExtractor(Config{Workers: 1}, engine, nil, nil)
	doc, err := ex.Extract(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, doc.Pages, 1)
	assert.Equal(t, SourceOCR, doc.Pages[0].Source)
	assert.Contains(t, doc.Text, citation)
}

// A single page's OCR failure with native text present must not fail the
// document; that page falls back to its native layer.
func TestExtractIsolatesPageOCRFailure(t *testing.T) {
	src := &stubSource{
		pages: 3,
		nativeText: func(p int) (string, error) {
			return fmt.Sprintf("native text layer of page %d, long enough to matter", p), nil
		},
	}
	engine := &stubEngine{
		text: map[int]string{
			1: "a much longer recognized text for page one that should win selection easily",
			3: "a much longer recognized text for page three that should win selection easily",
		},
		fail: map[int]error{2: fmt.Errorf("%w: engine crashed", ocr.ErrOCR)},
	}

	ex := NewExtractor(Config{Workers: 3}, engine, nil, nil)
	doc, err := ex.Extract(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, SourceOCR, doc.Pages[0].Source)
	assert.Equal(t, SourceNative, doc.Pages[1].Source)
	assert.Equal(t, "", doc.Pages[1].OCRText)
	assert.Equal(t, SourceOCR, doc.Pages[2].Source)
}

// Raster failure degrades identically to OCR failure.
func TestExtractIsolatesRasterFailure(t *testing.T) {
	src := &stubSource{
		pages: 2,
		nativeText: func(p int) (string, error) {
			return fmt.Sprintf("native fallback content for page %d of this filing", p), nil
		},
		rasterErr: func(p int) error {
			if p == 1 {
				return errors.New("pdftoppm exploded")
			}
			return nil
		},
	}
	engine := &stubEngine{text: map[int]string{
		2: "recognized page two content that is comfortably longer than the native layer",
	}}

	ex := NewExtractor(Config{Workers: 2}, engine, nil, nil)
	doc, err := ex.Extract(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, SourceNative, doc.Pages[0].Source)
	assert.Equal(t, SourceOCR, doc.Pages[1].Source)
}

// A transient OCR failure is retried once and the retry result is used.
func TestExtractRetriesOCROnce(t *testing.T) {
	src := &stubSource{pages: 1}
	engine := &stubEngine{
		text:     map[int]string{1: "recovered on the second attempt with plenty of text to pass the gate"},
		failOnce: map[int]error{1: ocr.ErrOCR},
	}

	ex := NewExtractor(Config{Workers: 1}, engine, nil, nil)
	doc, err := ex.Extract(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, SourceOCR, doc.Pages[0].Source)
	assert.Equal(t, int32(2), engine.calls.Load())
}

func TestExtractCancellationReturnsNoPartialDocument(t *testing.T) {
	src := &stubSource{pages: 8}
	engine := &stubEngine{
		text:  map[int]string{},
		delay: func(int) time.Duration { return 200 * time.Millisecond },
	}
	for i := 1; i <= 8; i++ {
		engine.text[i] = "some page text"
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	ex := NewExtractor(Config{Workers: 2}, engine, nil, nil)
	doc, err := ex.Extract(ctx, src)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrInsufficientText)
	assert.Empty(t, doc.Text)
	assert.Empty(t, doc.Pages)
}

func TestExtractUnviableDocument(t *testing.T) {
	src := &stubSource{pages: 2}
	engine := &stubEngine{text: map[int]string{1: "tiny", 2: ""}}

	ex := NewExtractor(Config{Workers: 2, MinViableChars: 50}, engine, nil, nil)
	_, err := ex.Extract(context.Background(), src)
	assert.ErrorIs(t, err, ErrInsufficientText)
}

func TestExtractPublishesProgressEvents(t *testing.T) {
	src := &stubSource{pages: 2}
	engine := &stubEngine{text: map[int]string{
		1: "page one recognized text long enough for the viability gate",
		2: "page two recognized text long enough for the viability gate",
	}}

	rep := NewChanReporter(128)
	ex := NewExtractor(Config{Workers: 1}, engine, rep, nil)
	_, err := ex.Extract(context.Background(), src)
	require.NoError(t, err)
	close(rep.C)

	seen := map[Stage]int{}
	var lastPagePercent int
	for ev := range rep.C {
		seen[ev.Stage]++
		if ev.Stage == StagePage {
			lastPagePercent = ev.Percent
		}
	}
	assert.Equal(t, 1, seen[StageOpen])
	assert.Equal(t, 2, seen[StageRasterize])
	assert.Equal(t, 2, seen[StageOCR])
	assert.Equal(t, 2, seen[StagePage])
	assert.Equal(t, 1, seen[StageAssemble])
	assert.Equal(t, 100, lastPagePercent)
}
