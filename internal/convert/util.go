package convert

import (
	"mime"
	"path/filepath"
	"strings"
)

// DetectKind maps an upload to image or pdf by MIME type, falling back to
// the file extension when the browser sent a generic type.
func DetectKind(mimeType, name string) (Kind, string, bool) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt == "" || mt == "application/octet-stream" {
		mt = mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
		if i := strings.Index(mt, ";"); i >= 0 {
			mt = mt[:i]
		}
	}
	switch mt {
	case "image/png", "image/jpeg", "image/jpg", "image/webp":
		if mt == "image/jpg" {
			mt = "image/jpeg"
		}
		return KindImage, mt, true
	case "application/pdf":
		return KindPDF, mt, true
	}
	return "", mt, false
}
