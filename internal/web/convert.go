package web

import (
	"bytes"
	"errors"
	"mime"
	"net/http"

	"github.com/thywilljoshua/datasmith/internal/convert"
	"github.com/thywilljoshua/datasmith/internal/imaging"
	"github.com/thywilljoshua/datasmith/internal/table"
)

type documentPage struct {
	page
	ID       string
	Name     string
	Kind     convert.Kind
	Rotation int
	Text     string
	Table    *table.Table
	CSVName  string
	NoKey    bool
}

func (s *Server) convertPage(p page) page {
	if p.Title == "" {
		p.Title = "Image and PDF to CSV Converter"
	}
	if s.opts.Extractor == nil {
		p.Warning = NoKeyWarning
	}
	return p
}

func (s *Server) handleConvertForm(w http.ResponseWriter, _ *http.Request) {
	s.render(w, http.StatusOK, "convert.html", s.convertPage(page{}))
}

func (s *Server) handleConvertUpload(w http.ResponseWriter, r *http.Request) {
	if s.opts.Extractor == nil {
		s.render(w, http.StatusServiceUnavailable, "convert.html", s.convertPage(page{}))
		return
	}
	name, mt, data, err := s.readUpload(w, r)
	if err != nil {
		s.render(w, http.StatusBadRequest, "convert.html", s.convertPage(page{Error: err.Error()}))
		return
	}

	kind, mt, ok := convert.DetectKind(mt, name)
	if !ok {
		s.render(w, http.StatusUnsupportedMediaType, "convert.html", s.convertPage(page{
			Error: "Upload an image (PNG, JPEG, WebP) or a PDF.",
		}))
		return
	}

	u := Upload{Kind: UploadDocument, Name: name, MIMEType: mt, Data: data, DocKind: kind}
	switch kind {
	case convert.KindImage:
		if _, err := convert.PrepareImage(data, 0); err != nil {
			s.render(w, http.StatusUnprocessableEntity, "convert.html", s.convertPage(page{Error: userMessage(err)}))
			return
		}
	case convert.KindPDF:
		text, err := convert.ExtractPDFText(data)
		if err != nil {
			s.render(w, http.StatusUnprocessableEntity, "convert.html", s.convertPage(page{
				Error: "An error occurred: could not read PDF text: " + err.Error(),
			}))
			return
		}
		u.Text = text
	}

	id := s.store.Put(u)
	s.log.Info("document uploaded", "id", id, "name", name, "kind", kind, "bytes", len(data))
	http.Redirect(w, r, "/convert/"+id, http.StatusSeeOther)
}

func (s *Server) documentUpload(w http.ResponseWriter, r *http.Request) (Upload, bool) {
	u, ok := s.store.Get(r.PathValue("id"))
	if !ok || u.Kind != UploadDocument {
		http.NotFound(w, r)
		return Upload{}, false
	}
	return u, true
}

func (s *Server) newDocumentPage(u Upload, p page) documentPage {
	dp := documentPage{
		page:     s.convertPage(p),
		ID:       u.ID,
		Name:     u.Name,
		Kind:     u.DocKind,
		Rotation: u.Rotation,
		Text:     u.Text,
		CSVName:  s.opts.OutputName,
		NoKey:    s.opts.Extractor == nil,
	}
	if u.Result != nil {
		dp.Table = u.Result.Table
		if dp.Notice == "" && dp.Error == "" {
			dp.Notice = "CSV file ready as " + s.opts.OutputName
		}
	}
	return dp
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	u, ok := s.documentUpload(w, r)
	if !ok {
		return
	}
	s.render(w, http.StatusOK, "document.html", s.newDocumentPage(u, page{}))
}

func (s *Server) handleRotate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rotated := s.store.Update(id, func(u *Upload) {
		if u.Kind == UploadDocument && u.DocKind == convert.KindImage {
			u.Rotation = imaging.NextAngle(u.Rotation)
			// The previous table was read from the old orientation.
			u.Result = nil
		}
	})
	if !rotated {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/convert/"+id, http.StatusSeeOther)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	u, ok := s.documentUpload(w, r)
	if !ok {
		return
	}
	if s.opts.Extractor == nil {
		s.render(w, http.StatusServiceUnavailable, "document.html", s.newDocumentPage(u, page{}))
		return
	}

	res, err := convert.Run(r.Context(), convert.Input{Name: u.Name, MIMEType: u.MIMEType, Data: u.Data}, convert.Config{
		Rotation:  u.Rotation,
		Extractor: s.opts.Extractor,
	})
	if err != nil {
		s.log.Warn("conversion failed", "id", u.ID, "error", err)
		s.render(w, http.StatusUnprocessableEntity, "document.html", s.newDocumentPage(u, page{Error: userMessage(err)}))
		return
	}

	s.store.Update(u.ID, func(stored *Upload) { stored.Result = &res })
	s.log.Info("document converted", "id", u.ID, "columns", res.Table.Width(), "rows", len(res.Table.Rows))
	http.Redirect(w, r, "/convert/"+u.ID, http.StatusSeeOther)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	u, ok := s.documentUpload(w, r)
	if !ok {
		return
	}
	if u.DocKind != convert.KindImage {
		http.NotFound(w, r)
		return
	}
	img, _, err := imaging.Decode(bytes.NewReader(u.Data))
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	out, err := imaging.EncodePNG(imaging.Preview(imaging.Rotate(img, u.Rotation), previewWidth))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(out)
}

func (s *Server) handleCSV(w http.ResponseWriter, r *http.Request) {
	u, ok := s.documentUpload(w, r)
	if !ok {
		return
	}
	if u.Result == nil {
		http.Error(w, "convert the document first", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(s.opts.OutputName))
	_, _ = w.Write(u.Result.CSV)
}

func attachment(name string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}

func userMessage(err error) string {
	var cerr *convert.Error
	if errors.As(err, &cerr) {
		return cerr.UserMessage()
	}
	return "An error occurred: " + err.Error()
}
