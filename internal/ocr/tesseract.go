package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// CalibrationWhitelist restricts recognition to the characters of a
// calibration label such as "20um".
const CalibrationWhitelist = "1234567890um"

// Tesseract reads single lines of text from images.
type Tesseract struct {
	// Language is the Tesseract language code, "eng" when empty.
	Language string

	// Whitelist limits the recognized characters. Empty allows all.
	Whitelist string

	// TessdataPrefix overrides the directory holding the language data.
	TessdataPrefix string
}

// NewTesseract returns a reader configured for calibration labels.
func NewTesseract() *Tesseract {
	return &Tesseract{
		Language:  "eng",
		Whitelist: CalibrationWhitelist,
	}
}

// ReadLine recognizes img as a single line of text and returns it with
// surrounding whitespace removed.
func (t *Tesseract) ReadLine(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.TessdataPrefix); err != nil {
			return "", fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}

	language := t.Language
	if language == "" {
		language = "eng"
	}
	if err := client.SetLanguage(language); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}

	if t.Whitelist != "" {
		if err := client.SetWhitelist(t.Whitelist); err != nil {
			return "", fmt.Errorf("failed to set whitelist: %w", err)
		}
	}

	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}
