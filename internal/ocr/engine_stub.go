//go:build !gosseract

package ocr

import "errors"

func newGosseractEngine(Config) (Engine, error) {
	return nil, errors.New("OCR engine gosseract requires building with -tags gosseract")
}
