package pdftext

import (
	"bytes"
	"log/slog"
	"sort"
	"strings"
	"time"

	rpdf "rsc.io/pdf"
)

// Config bounds the structured extraction pass. Page selection is the
// cost-control heuristic: for an N-page document only the first
// FirstPages, the last LastPages, and (when N > MiddleThreshold) up to
// MiddleSample pages from the 30-70% range are parsed.
type Config struct {
	FirstPages      int // default 5
	LastPages       int // default 2
	MiddleSample    int // default 3
	MiddleThreshold int // sample the middle only when N exceeds this; default 10
	MinTextLen      int // below this the structured pass is considered failed; default 100
	MinFragmentLen  int // fallback fragments shorter than this are noise; default 8
}

// Result summarizes one extraction. Text is never empty: when both
// passes fail it holds the sentinel string.
type Result struct {
	Text     string
	Pages    int // total pages in the document, 0 when unknown
	Selected int // pages actually parsed
	Method   string // "pdf-pages" | "raw-scan" | "none"
	Quality  float32
	Duration time.Duration
}

// Sentinel is returned as Result.Text when no readable text could be
// recovered, so downstream stages always have input.
const Sentinel = "extraction failed: no readable text recovered from document"

type Extractor struct {
	cfg    Config
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if cfg.FirstPages <= 0 {
		cfg.FirstPages = 5
	}
	if cfg.LastPages <= 0 {
		cfg.LastPages = 2
	}
	if cfg.MiddleSample <= 0 {
		cfg.MiddleSample = 3
	}
	if cfg.MiddleThreshold <= 0 {
		cfg.MiddleThreshold = 10
	}
	if cfg.MinTextLen <= 0 {
		cfg.MinTextLen = 100
	}
	if cfg.MinFragmentLen <= 0 {
		cfg.MinFragmentLen = 8
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, logger: logger}
}

// Extract converts raw document bytes to bounded plain text. It never
// returns an error: the structured pass is attempted first, the raw
// scanner second, and the sentinel string is the worst case. Callers
// must tolerate near-empty or garbage text.
func (e *Extractor) Extract(data []byte) Result {
	start := time.Now()

	res := e.structured(data)
	if len(res.Text) >= e.cfg.MinTextLen {
		res.Quality = heuristicQuality(res.Text)
		res.Duration = time.Since(start)
		e.logger.Info("pdftext.extract.ok",
			"method", res.Method, "pages", res.Pages, "selected", res.Selected,
			"bytes", len(res.Text), "quality", res.Quality,
		)
		return res
	}

	if frags := scanRawText(data, e.cfg.MinFragmentLen); len(frags) > 0 {
		text := cleanText(strings.Join(frags, "\n"))
		if len(text) >= e.cfg.MinFragmentLen {
			q := heuristicQuality(text)
			e.logger.Warn("pdftext.extract.fallback",
				"fragments", len(frags), "bytes", len(text), "quality", q,
			)
			return Result{
				Text:     text,
				Pages:    res.Pages,
				Method:   "raw-scan",
				Quality:  q,
				Duration: time.Since(start),
			}
		}
	}

	e.logger.Warn("pdftext.extract.failed", "input_bytes", len(data))
	return Result{
		Text:     Sentinel,
		Pages:    res.Pages,
		Method:   "none",
		Quality:  0,
		Duration: time.Since(start),
	}
}

// structured runs the page-model pass. The pdf library panics on many
// malformed files, so the whole pass is wrapped in a recover.
func (e *Extractor) structured(data []byte) (res Result) {
	res.Method = "pdf-pages"
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("pdftext.structured.panic", "reason", r)
			res.Text = ""
		}
	}()

	if len(data) == 0 {
		return res
	}
	reader, err := rpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		e.logger.Warn("pdftext.structured.open_failed", "error", err)
		return res
	}

	n := reader.NumPage()
	res.Pages = n
	selected := e.selectPages(n)
	res.Selected = len(selected)

	var b strings.Builder
	for _, pageNum := range selected {
		txt := pageText(reader, pageNum)
		if txt == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // page-boundary marker
		}
		b.WriteString(txt)
	}
	res.Text = cleanText(b.String())
	return res
}

// selectPages returns 1-based page numbers in ascending order: the head,
// the tail, and a bounded middle sample for long documents.
func (e *Extractor) selectPages(n int) []int {
	if n <= 0 {
		return nil
	}
	pick := map[int]struct{}{}
	for i := 1; i <= n && i <= e.cfg.FirstPages; i++ {
		pick[i] = struct{}{}
	}
	for i := n - e.cfg.LastPages + 1; i <= n; i++ {
		if i >= 1 {
			pick[i] = struct{}{}
		}
	}
	if n > e.cfg.MiddleThreshold {
		// evenly spaced samples across the 30%..70% band
		lo := int(float64(n) * 0.3)
		hi := int(float64(n) * 0.7)
		if lo < 1 {
			lo = 1
		}
		if hi <= lo {
			hi = lo + 1
		}
		step := (hi - lo) / e.cfg.MiddleSample
		if step < 1 {
			step = 1
		}
		for i, p := 0, lo; i < e.cfg.MiddleSample && p <= hi && p <= n; i, p = i+1, p+step {
			pick[p] = struct{}{}
		}
	}
	out := make([]int, 0, len(pick))
	for p := range pick {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// pageText assembles one page's text runs ordered top-to-bottom,
// left-to-right. Individual pages can panic independently of the
// document reader, so each page recovers on its own.
func pageText(r *rpdf.Reader, num int) (out string) {
	defer func() {
		if recover() != nil {
			out = ""
		}
	}()

	page := r.Page(num)
	if page.V.IsNull() {
		return ""
	}
	content := page.Content()
	runs := content.Text
	if len(runs) == 0 {
		return ""
	}
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].Y != runs[j].Y {
			return runs[i].Y > runs[j].Y // PDF origin is bottom-left
		}
		return runs[i].X < runs[j].X
	})

	var b strings.Builder
	lastY := runs[0].Y
	for _, t := range runs {
		if t.Y != lastY {
			b.WriteString("\n")
			lastY = t.Y
		} else if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(t.S)
	}
	return b.String()
}
