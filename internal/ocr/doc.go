// Package ocr reads the printed calibration length of SEM micrographs using
// Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2). It only
// recognizes single lines of text, which is all the scale bar of a
// micrograph footer carries.
//
// # Prerequisites
//
// Tesseract and its English language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng libtesseract-dev
//   - macOS: brew install tesseract
//
// A custom location for the language data can be given through
// Tesseract.TessdataPrefix.
//
// # Concurrency
//
// A gosseract client is not safe for concurrent use, so ReadLine creates a
// client per call. A single Tesseract value can therefore be shared by the
// batch workers.
package ocr
