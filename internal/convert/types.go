package convert

import (
	"github.com/thywilljoshua/datasmith/internal/ai"
	"github.com/thywilljoshua/datasmith/internal/table"
)

// Kind is the family of an uploaded document.
type Kind string

const (
	KindImage Kind = "image"
	KindPDF   Kind = "pdf"
)

// Input is one uploaded document.
type Input struct {
	Name     string
	MIMEType string
	Data     []byte
}

type Config struct {
	// OutPath receives the CSV; empty keeps the result in memory only.
	OutPath string
	// Rotation in degrees, counter-clockwise, applied to images before extraction.
	Rotation  int
	Extractor ai.Extractor
}

type Result struct {
	Kind  Kind         `json:"kind"`
	Table *table.Table `json:"table"`
	CSV   []byte       `json:"-"`
	Path  string       `json:"path,omitempty"`
	// Text is the PDF text layer sent to the model.
	Text string `json:"-"`
}
