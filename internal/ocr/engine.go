package ocr

import (
	"context"
	"fmt"
	"strconv"
)

const (
	EngineTesseractCLI = "tesseract"
	EngineGosseract    = "gosseract"
)

// Engine recognizes the text of one rendered page image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// tesseractCLI shells out to the tesseract binary through the Runner.
type tesseractCLI struct {
	runner      Runner
	bin         string
	lang        string
	tessdataDir string
	psm         int
	oem         int
}

func (t *tesseractCLI) Name() string { return EngineTesseractCLI }

func (t *tesseractCLI) Recognize(ctx context.Context, imagePath string) (string, error) {
	args := []string{imagePath, "stdout", "-l", t.lang}
	if t.psm > 0 {
		args = append(args, "--psm", strconv.Itoa(t.psm))
	}
	if t.oem > 0 {
		args = append(args, "--oem", strconv.Itoa(t.oem))
	}
	if t.tessdataDir != "" {
		args = append(args, "--tessdata-dir", t.tessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := t.runner.Run(ctx, t.bin, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}

	// minor cleanup of obvious line noise
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}
