// Package convert turns an uploaded image or PDF into a CSV table with the
// help of a generative model.
package convert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/thywilljoshua/datasmith/internal/ai"
	"github.com/thywilljoshua/datasmith/internal/imaging"
	"github.com/thywilljoshua/datasmith/internal/table"
)

// Run extracts a table from in. Every failure is returned as *Error.
func Run(ctx context.Context, in Input, cfg Config) (Result, error) {
	if cfg.Extractor == nil {
		return Result{}, newError(ErrorAICallFailed, "no extractor configured", nil)
	}
	kind, mt, ok := DetectKind(in.MIMEType, in.Name)
	if !ok {
		return Result{}, unsupported(in.MIMEType, in.Name)
	}

	res := Result{Kind: kind}
	var answer string
	switch kind {
	case KindImage:
		data, err := PrepareImage(in.Data, cfg.Rotation)
		if err != nil {
			return Result{}, err
		}
		// Rotated images are re-encoded as PNG.
		if imaging.NormalizeAngle(cfg.Rotation) != 0 {
			mt = "image/png"
		}
		answer, err = cfg.Extractor.ExtractFromImage(ctx, mt, data)
		if err != nil {
			return Result{}, newError(ErrorAICallFailed, "model request failed", err)
		}
	case KindPDF:
		text, err := ExtractPDFText(in.Data)
		if err != nil {
			return Result{}, newError(ErrorPDFTextFailed, "could not read PDF text", err)
		}
		if strings.TrimSpace(text) == "" {
			return Result{}, newError(ErrorPDFTextFailed, "PDF has no text layer", nil)
		}
		res.Text = text
		answer, err = cfg.Extractor.ExtractFromText(ctx, text)
		if err != nil {
			return Result{}, newError(ErrorAICallFailed, "model request failed", err)
		}
	}

	tbl, err := table.Parse(ai.StripCodeFences(answer))
	if err != nil {
		if errors.Is(err, table.ErrEmpty) {
			return Result{}, newError(ErrorInvalidTable, "model returned no table", err)
		}
		return Result{}, newError(ErrorInvalidTable, "model output is not CSV", err)
	}
	res.Table = tbl

	csvData, err := tbl.CSV()
	if err != nil {
		return Result{}, newError(ErrorWriteFailed, "could not encode CSV", err)
	}
	res.CSV = csvData

	if cfg.OutPath != "" {
		if dir := filepath.Dir(cfg.OutPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return Result{}, newError(ErrorWriteFailed, "could not create output directory", err)
			}
		}
		if err := os.WriteFile(cfg.OutPath, csvData, 0o644); err != nil {
			return Result{}, newError(ErrorWriteFailed, "could not save CSV", err)
		}
		res.Path = cfg.OutPath
	}
	return res, nil
}

// PrepareImage checks that data decodes and applies the rotation. Unrotated
// images are passed through untouched.
func PrepareImage(data []byte, rotation int) ([]byte, error) {
	img, _, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, newError(ErrorDecodeFailed, "could not decode image", err)
	}
	if imaging.NormalizeAngle(rotation) == 0 {
		return data, nil
	}
	out, err := imaging.EncodePNG(imaging.Rotate(img, rotation))
	if err != nil {
		return nil, newError(ErrorDecodeFailed, "could not encode rotated image", err)
	}
	return out, nil
}
