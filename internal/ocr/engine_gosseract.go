//go:build gosseract

package ocr

import (
	"context"
	"fmt"
	"os"

	"github.com/otiai10/gosseract/v2"
)

// gosseractEngine runs tesseract in-process through libtesseract.
type gosseractEngine struct {
	lang        string
	tessdataDir string
	psm         int
}

func newGosseractEngine(cfg Config) (Engine, error) {
	return &gosseractEngine{lang: cfg.TesseractLang, tessdataDir: cfg.TessdataDir, psm: cfg.PSM}, nil
}

func (g *gosseractEngine) Name() string { return EngineGosseract }

func (g *gosseractEngine) Recognize(ctx context.Context, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	img, err := os.ReadFile(imagePath)
	if err != nil {
		return "", err
	}

	c := gosseract.NewClient()
	defer c.Close()

	if g.tessdataDir != "" {
		if err := c.SetTessdataPrefix(g.tessdataDir); err != nil {
			return "", fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := c.SetLanguage(g.lang); err != nil {
		return "", fmt.Errorf("set languages: %w", err)
	}
	if g.psm > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(g.psm)); err != nil {
			return "", fmt.Errorf("set psm: %w", err)
		}
	}
	if err := c.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	txt, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("gosseract: %w", err)
	}
	return reBoxNoise.ReplaceAllString(txt, ""), nil
}
