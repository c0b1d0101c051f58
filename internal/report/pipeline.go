// Package report owns the image-submission and report-extraction pipeline:
// normalize the upload, submit it with the fixed prompt, always clean up the
// transient artifact, and hand back a tagged result the presentation layer
// can render without ever seeing a raw fault.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"radiolens/internal/imageprep"
	"radiolens/internal/vision"
)

// WarningMarker prefixes every fault rendered as displayable text.
const WarningMarker = "⚠️"

// FaultKind tags the outcome of one analysis request.
type FaultKind string

const (
	KindOK       FaultKind = "ok"
	KindDecode   FaultKind = "decode_error"
	KindIO       FaultKind = "io_error"
	KindAnalysis FaultKind = "analysis_fault"
)

// Result is the outcome of one Analyze call. On success Report holds the
// model's markdown verbatim; on any fault Kind and Err describe what went
// wrong and Render still yields displayable text.
type Result struct {
	RequestID  string
	Report     string
	Summary    string
	Cached     bool
	Normalized []byte // PNG bytes of the normalized image, nil on a fault
	Kind       FaultKind
	Err        error
}

func (r Result) OK() bool { return r.Kind == KindOK }

// Render returns displayable text for any outcome: the report verbatim on
// success, a warning-marker diagnostic line on a fault. Callers that want to
// distinguish fault kinds use Kind instead.
func (r Result) Render() string {
	if r.OK() {
		return r.Report
	}
	return fmt.Sprintf("%s Analysis error: %v", WarningMarker, r.Err)
}

// Pipeline is stateless across requests; session history is owned by the
// caller.
type Pipeline struct {
	client vision.Client
	prep   imageprep.Options
	cache  *Cache // optional
}

func NewPipeline(client vision.Client, prep imageprep.Options, cache *Cache) *Pipeline {
	return &Pipeline{client: client, prep: prep, cache: cache}
}

// Analyze runs one request end to end. The normalized temp file is released
// on every exit path, including a failed model call.
func (p *Pipeline) Analyze(ctx context.Context, src io.Reader) Result {
	reqID := uuid.NewString()

	prepared, err := imageprep.Prepare(src, p.prep)
	if err != nil {
		kind := KindIO
		var dErr *imageprep.DecodeError
		if errors.As(err, &dErr) {
			kind = KindDecode
		}
		return Result{RequestID: reqID, Kind: kind, Err: err}
	}
	defer prepared.Release()

	key := Key(p.client.Name(), prepared.Data)
	if text, ok := p.cache.Get(key); ok {
		return Result{
			RequestID:  reqID,
			Report:     text,
			Summary:    ExtractSummary(text),
			Cached:     true,
			Normalized: prepared.Data,
			Kind:       KindOK,
		}
	}

	text, err := p.client.Describe(ctx, Prompt, vision.Image{Data: prepared.Data, MIMEType: "image/png"})
	if err != nil {
		return Result{RequestID: reqID, Kind: KindAnalysis, Err: err}
	}
	p.cache.Set(key, text)

	return Result{
		RequestID:  reqID,
		Report:     text,
		Summary:    ExtractSummary(text),
		Normalized: prepared.Data,
		Kind:       KindOK,
	}
}

// AnalyzeFile is Analyze for an on-disk source image.
func (p *Pipeline) AnalyzeFile(ctx context.Context, path string) Result {
	f, err := os.Open(path)
	if err != nil {
		return Result{RequestID: uuid.NewString(), Kind: KindIO, Err: err}
	}
	defer f.Close()
	return p.Analyze(ctx, f)
}
