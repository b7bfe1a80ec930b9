package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmikhr/freshkeep/internal/classifier"
	"github.com/dmikhr/freshkeep/internal/model"
)

// MaxImageBytes is the upload size ceiling for gallery images.
const MaxImageBytes = 10 << 20 // 10 MiB

// ErrNotAnImage rejects gallery files whose sniffed type is not image/*.
var ErrNotAnImage = errors.New("file is not an image")

// ErrImageTooLarge rejects gallery files over the size ceiling.
var ErrImageTooLarge = errors.New("image exceeds size limit")

// Labeler is the slice of the classifier client the pipeline needs.
type Labeler interface {
	Predict(ctx context.Context, filename string, image io.Reader) ([]model.Prediction, error)
}

// Capture is an acquired image plus where it came from.
type Capture struct {
	Filename string
	Data     []byte
}

// Result is the outcome of a capture-and-classify run. Suggestion is nil
// when classification failed or was skipped; the capture itself is always
// usable.
type Result struct {
	Capture    Capture
	Suggestion *classifier.Suggestion
	// ClassifyErr records a non-fatal classification failure.
	ClassifyErr error
}

// Pipeline drives a session through capture and optional classification.
type Pipeline struct {
	session       *Session
	labeler       Labeler
	minConfidence float64
}

// NewPipeline wires a session to a classifier. labeler may be nil to skip
// classification entirely.
func NewPipeline(session *Session, labeler Labeler, minConfidence float64) *Pipeline {
	if minConfidence <= 0 {
		minConfidence = classifier.DefaultMinConfidence
	}
	return &Pipeline{session: session, labeler: labeler, minConfidence: minConfidence}
}

// Session exposes the underlying session for state inspection and teardown.
func (p *Pipeline) Session() *Session {
	return p.session
}

// CaptureAndClassify captures one frame from the active stream and runs it
// through the classifier. The stream is released before classification
// starts. Classification errors are carried in the Result, not returned:
// the captured image survives them. If the session is closed while the
// classifier call is in flight the late answer is dropped.
func (p *Pipeline) CaptureAndClassify(ctx context.Context) (*Result, error) {
	frame, err := p.session.Capture(ctx)
	if err != nil {
		return nil, err
	}
	res := &Result{Capture: Capture{Filename: "capture.jpg", Data: frame}}
	p.classify(ctx, res)
	return res, nil
}

// FromUpload takes the gallery path: the file skips the camera states and
// lands directly in Captured, after validation. Rejected files leave the
// session in Idle.
func (p *Pipeline) FromUpload(ctx context.Context, filename string, data []byte) (*Result, error) {
	if int64(len(data)) > MaxImageBytes {
		return nil, fmt.Errorf("%w (%d bytes)", ErrImageTooLarge, len(data))
	}
	sniff := data
	if len(sniff) > 512 {
		sniff = sniff[:512]
	}
	if !strings.HasPrefix(http.DetectContentType(sniff), "image/") {
		return nil, ErrNotAnImage
	}
	p.session.setState(StateCaptured)
	res := &Result{Capture: Capture{Filename: filename, Data: data}}
	p.classify(ctx, res)
	return res, nil
}

func (p *Pipeline) classify(ctx context.Context, res *Result) {
	if p.labeler == nil {
		return
	}
	p.session.setState(StateClassifying)
	predictions, err := p.labeler.Predict(ctx, res.Capture.Filename, bytes.NewReader(res.Capture.Data))
	if p.session.Closed() {
		// The host dialog is gone; drop the late answer.
		return
	}
	if err != nil {
		res.ClassifyErr = err
		p.session.setState(StateClassificationFailed)
		return
	}
	if s, ok := classifier.Suggest(predictions, p.minConfidence); ok {
		res.Suggestion = &s
	}
	p.session.setState(StateClassified)
}
