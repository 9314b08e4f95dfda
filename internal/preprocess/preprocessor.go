package preprocess

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	_ "image/png"
	"sync"

	_ "golang.org/x/image/webp"

	apperrors "go-card-extractor/internal/errors"
	"go-card-extractor/internal/logger"

	"github.com/sirupsen/logrus"
)

const (
	// Fixed tone transform applied while compositing onto the canvas. The
	// values match the enhancement the downstream model was tuned against.
	contrastFactor   = 1.5
	brightnessFactor = 1.1

	// Output JPEG quality (near-lossless, compact)
	jpegQuality = 95

	// OutputMimeType is the media type of every preprocessed payload.
	OutputMimeType = "image/jpeg"
)

// CardFile is one raw input image as supplied by the caller.
type CardFile struct {
	Name     string
	MimeType string
	Data     []byte
}

// Preprocessed is the transient re-encoded payload consumed by request
// assembly. It is not retained after the inference request is built.
type Preprocessed struct {
	Data     []byte
	MimeType string
}

// Preprocessor turns raw card images into compact, contrast-enhanced JPEG
// payloads suitable for a multimodal inference request.
type Preprocessor interface {
	Preprocess(file CardFile) (Preprocessed, error)
	PreprocessBatch(ctx context.Context, files []CardFile) ([]Preprocessed, error)
}

type cardPreprocessor struct {
	tone toneTable
}

// NewCardPreprocessor creates a preprocessor with the fixed enhancement filter
func NewCardPreprocessor() Preprocessor {
	return &cardPreprocessor{
		tone: newToneTable(contrastFactor, brightnessFactor),
	}
}

// Preprocess decodes one raster image, renders it through the tone transform
// at native size, and re-encodes it as JPEG. Holds no state between calls;
// the canvas is scoped to this call.
func (p *cardPreprocessor) Preprocess(file CardFile) (Preprocessed, error) {
	if len(file.Data) == 0 {
		return Preprocessed{}, apperrors.NewReadError("card image file is empty or unreadable", nil)
	}

	img, format, err := image.Decode(bytes.NewReader(file.Data))
	if err != nil {
		return Preprocessed{}, apperrors.NewDecodeError("unsupported or corrupt card image", err)
	}

	if m := Legibility(img); m.LowContrast() {
		logger.WithFields(logrus.Fields{
			"file":           file.Name,
			"mean_luminance": m.MeanLuminance,
			"contrast":       m.Contrast,
		}).Warn("Low-contrast card image, extraction quality may suffer")
	}

	canvas := p.renderFiltered(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Preprocessed{}, apperrors.NewRenderError("failed to re-encode card image", err)
	}

	logger.WithFields(logrus.Fields{
		"file":         file.Name,
		"input_format": format,
		"input_bytes":  len(file.Data),
		"output_bytes": buf.Len(),
	}).Debug("Card image preprocessed")

	return Preprocessed{Data: buf.Bytes(), MimeType: OutputMimeType}, nil
}

// renderFiltered draws the image onto a canvas of exactly its native size,
// applying the tone transform per pixel during the draw.
func (p *cardPreprocessor) renderFiltered(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := (y - bounds.Min.Y) * canvas.Stride
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			off := row + (x-bounds.Min.X)*4
			canvas.Pix[off+0] = p.tone[r>>8]
			canvas.Pix[off+1] = p.tone[g>>8]
			canvas.Pix[off+2] = p.tone[b>>8]
			canvas.Pix[off+3] = 0xff
		}
	}
	return canvas
}

// PreprocessBatch runs Preprocess for every file concurrently and joins all
// of them. The first failure fails the whole batch with that error; no
// partial output is returned. Output order equals input order.
func (p *cardPreprocessor) PreprocessBatch(ctx context.Context, files []CardFile) ([]Preprocessed, error) {
	if len(files) == 0 {
		return nil, nil
	}

	results := make([]Preprocessed, len(files))
	errc := make(chan error, len(files))

	var wg sync.WaitGroup
	for i := range files {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := p.Preprocess(files[i])
			if err != nil {
				errc <- err
				return
			}
			results[i] = out
		}(i)
	}
	wg.Wait()
	close(errc)

	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTimeoutError("preprocessing canceled", err)
	}
	if err, ok := <-errc; ok {
		return nil, err
	}
	return results, nil
}

// toneTable is a 256-entry lookup for the fixed contrast/brightness transform.
type toneTable [256]uint8

func newToneTable(contrast, brightness float64) toneTable {
	var t toneTable
	for i := 0; i < 256; i++ {
		v := (float64(i)/255-0.5)*contrast + 0.5
		v *= brightness
		scaled := int(v*255 + 0.5)
		if scaled < 0 {
			scaled = 0
		}
		if scaled > 255 {
			scaled = 255
		}
		t[i] = uint8(scaled)
	}
	return t
}
