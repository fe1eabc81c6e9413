package scale

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/ironsheep/graphene-metrics/internal/imaging"
)

// Geometry of the label crop relative to the calibration lines.
const (
	textInset  = 2
	textAbove  = 18
	textHeight = 45
	textBlur   = 1.0
)

// TextReader recognizes a single line of text.
type TextReader interface {
	ReadLine(img image.Image) (string, error)
}

// Options controls scale recognition.
type Options struct {
	// Override skips recognition and uses the values below.
	Override bool `json:"override"`

	// FooterHeight is the height in pixels of the footer to cut off when
	// Override is set. Zero keeps the whole image.
	FooterHeight int `json:"footer_height"`

	// Micrometers and Pixels give the override scale as a physical length
	// and its length in pixels.
	Micrometers float64 `json:"micrometers"`
	Pixels      int     `json:"pixels"`

	// Debug keeps the intermediate images in the Result.
	Debug bool `json:"debug"`
}

// Result is the recognized scale along with the image above the footer.
type Result struct {
	// MicrometersPerPixel is the scale factor used by the analyses.
	MicrometersPerPixel float64 `json:"micrometers_per_pixel"`

	// Micrometers is the printed calibration length.
	Micrometers float64 `json:"micrometers"`

	// PixelLength is the calibration length in pixels.
	PixelLength int `json:"pixel_length"`

	// FooterHeight is the height of the removed footer in pixels.
	FooterHeight int `json:"footer_height"`

	// Text is the raw label as read, empty in override mode.
	Text string `json:"text,omitempty"`

	// Lines are the calibration lines in footer crop coordinates.
	Lines *CalibrationLines `json:"lines,omitempty"`

	// Image is the micrograph without its footer.
	Image *image.Gray `json:"-"`

	// Debug images, set only with Options.Debug: the footer transitions
	// drawn in green, the thresholded footer crop with the accepted runs
	// in dark gray, and the label crop given to the reader.
	Transitions *image.RGBA `json:"-"`
	LineMask    *image.Gray `json:"-"`
	Label       *image.Gray `json:"-"`
}

// Recognizer determines the scale of micrographs.
type Recognizer struct {
	// Reader reads the calibration label. It is not used in override mode.
	Reader  TextReader
	Options Options
}

// Recognize determines the scale of img and separates the micrograph from
// its footer. img is not modified.
func (r *Recognizer) Recognize(img *image.Gray) (*Result, error) {
	if r.Options.Override {
		return r.override(img)
	}
	if r.Reader == nil {
		return nil, errors.New("no text reader configured")
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	top, transitions, err := FooterTop(img)
	if err != nil {
		return nil, err
	}
	result := &Result{
		FooterHeight: height - top,
		Image:        imaging.CropGray(img, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+top)),
	}
	if r.Options.Debug {
		result.Transitions = imaging.ToRGBA(img)
		for _, p := range transitions {
			result.Transitions.Set(p.X, p.Y, color.RGBA{0, 255, 0, 255})
		}
	}

	cropX := width - min(footerCropWidth, width)
	footer := imaging.CropGray(img, image.Rect(b.Min.X+cropX, b.Min.Y+top, b.Max.X, b.Max.Y))
	mask := imaging.Threshold(footer, lineThreshold)

	lines, err := FindCalibrationLines(mask)
	if err != nil {
		return nil, err
	}
	result.Lines = &lines
	result.PixelLength = lines.PixelLength()
	if r.Options.Debug {
		result.LineMask = drawRuns(mask, lines)
	}

	labelRect := image.Rect(
		cropX+lines.Left.Inner+textInset,
		top+lines.Right.Y-textAbove,
		cropX+lines.Right.Inner-textInset,
		top+lines.Right.Y-textAbove+textHeight,
	).Add(b.Min)
	label := imaging.Blur(imaging.Threshold(imaging.CropGray(img, labelRect), lineThreshold), textBlur)
	if r.Options.Debug {
		result.Label = label
	}
	if label.Bounds().Empty() {
		return nil, fmt.Errorf("label region %v: %w", labelRect, ErrImageTooSmall)
	}

	text, err := r.Reader.ReadLine(label)
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration label: %w", err)
	}
	result.Text = text

	micrometers, err := ParseLabel(text)
	if err != nil {
		return nil, err
	}
	result.Micrometers = micrometers
	result.MicrometersPerPixel = micrometers / float64(result.PixelLength)
	return result, nil
}

func (r *Recognizer) override(img *image.Gray) (*Result, error) {
	opts := r.Options
	b := img.Bounds()
	if opts.Micrometers <= 0 || opts.Pixels <= 0 {
		return nil, fmt.Errorf("%g um over %d px: %w", opts.Micrometers, opts.Pixels, ErrInvalidOverride)
	}
	if opts.FooterHeight < 0 || opts.FooterHeight >= b.Dy() {
		return nil, fmt.Errorf("footer height %d for an image %d px tall: %w",
			opts.FooterHeight, b.Dy(), ErrInvalidOverride)
	}

	top := b.Dy() - opts.FooterHeight
	return &Result{
		MicrometersPerPixel: opts.Micrometers / float64(opts.Pixels),
		Micrometers:         opts.Micrometers,
		PixelLength:         opts.Pixels,
		FooterHeight:        opts.FooterHeight,
		Image:               imaging.CropGray(img, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+top)),
	}, nil
}

// ParseLabel parses a calibration label of the form "<number>um", allowing
// whitespace around the number. The length must be positive.
func ParseLabel(text string) (float64, error) {
	digits, ok := strings.CutSuffix(strings.TrimSpace(text), "um")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrTextNotRecognized, text)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(digits), 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrTextNotRecognized, text)
	}
	return value, nil
}
