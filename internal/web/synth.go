package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/thywilljoshua/datasmith/internal/synth"
	"github.com/thywilljoshua/datasmith/internal/table"
	"github.com/thywilljoshua/datasmith/internal/workbook"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type workbookPage struct {
	page
	ID     string
	Name   string
	Sheets []sheetView
}

type sheetView struct {
	Index   int
	Name    string
	Rows    int
	Columns []columnView
}

type columnView struct {
	Index  int
	Name   string
	Kind   table.Kind
	Detail string
	Modes  []synth.Mode
}

func (s *Server) handleSynthForm(w http.ResponseWriter, _ *http.Request) {
	s.render(w, http.StatusOK, "synth.html", page{Title: "Synthetic Data Generator"})
}

func (s *Server) handleSynthUpload(w http.ResponseWriter, r *http.Request) {
	name, mt, data, err := s.readUpload(w, r)
	if err != nil {
		s.render(w, http.StatusBadRequest, "synth.html", page{Title: "Synthetic Data Generator", Error: err.Error()})
		return
	}
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") && mt != xlsxContentType {
		s.render(w, http.StatusUnsupportedMediaType, "synth.html", page{Title: "Synthetic Data Generator", Error: "Upload an Excel workbook (.xlsx)."})
		return
	}

	wb, err := workbook.Load(name, bytes.NewReader(data))
	if err != nil {
		s.render(w, http.StatusUnprocessableEntity, "synth.html", page{Title: "Synthetic Data Generator", Error: "An error occurred: " + err.Error()})
		return
	}
	defer wb.Close()
	frames, err := wb.Frames()
	if err != nil {
		s.render(w, http.StatusUnprocessableEntity, "synth.html", page{Title: "Synthetic Data Generator", Error: "An error occurred: " + err.Error()})
		return
	}

	id := s.store.Put(Upload{Kind: UploadWorkbook, Name: name, MIMEType: xlsxContentType, Data: data, Frames: frames})
	s.log.Info("workbook uploaded", "id", id, "name", name, "sheets", len(frames))
	http.Redirect(w, r, "/synth/"+id, http.StatusSeeOther)
}

func (s *Server) workbookUpload(w http.ResponseWriter, r *http.Request) (Upload, bool) {
	u, ok := s.store.Get(r.PathValue("id"))
	if !ok || u.Kind != UploadWorkbook {
		http.NotFound(w, r)
		return Upload{}, false
	}
	return u, true
}

func newWorkbookPage(u Upload, p page) workbookPage {
	if p.Title == "" {
		p.Title = "Synthetic Data Generator"
	}
	wp := workbookPage{page: p, ID: u.ID, Name: u.Name}
	for i, f := range u.Frames {
		sv := sheetView{Index: i, Name: f.Sheet, Rows: f.Rows}
		for j := range f.Columns {
			col := &f.Columns[j]
			sv.Columns = append(sv.Columns, columnView{
				Index:  j,
				Name:   col.Name,
				Kind:   col.Kind,
				Detail: describe(col),
				Modes:  synth.ModesFor(col.Kind),
			})
		}
		wp.Sheets = append(wp.Sheets, sv)
	}
	return wp
}

// describe summarises the observed values of a column for the form.
func describe(col *table.Column) string {
	switch col.Kind {
	case table.KindNumeric:
		mean, std := stat.MeanStdDev(col.Numbers, nil)
		if len(col.Numbers) < 2 {
			std = 0
		}
		return fmt.Sprintf("mean %.4g, std %.4g, range [%g, %g]", mean, std, floats.Min(col.Numbers), floats.Max(col.Numbers))
	case table.KindCategorical:
		distinct := make(map[string]struct{}, len(col.Texts))
		for _, t := range col.Texts {
			distinct[t] = struct{}{}
		}
		return fmt.Sprintf("%d values, %d distinct", len(col.Texts), len(distinct))
	case table.KindDatetime:
		lo, hi := col.Times[0], col.Times[0]
		for _, t := range col.Times[1:] {
			if t.Before(lo) {
				lo = t
			}
			if t.After(hi) {
				hi = t
			}
		}
		layout := "2006-01-02 15:04:05"
		if col.DateOnly {
			layout = "2006-01-02"
		}
		return fmt.Sprintf("%s to %s", lo.Format(layout), hi.Format(layout))
	}
	return "no values"
}

func (s *Server) handleWorkbook(w http.ResponseWriter, r *http.Request) {
	u, ok := s.workbookUpload(w, r)
	if !ok {
		return
	}
	s.render(w, http.StatusOK, "workbook.html", newWorkbookPage(u, page{}))
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	u, ok := s.workbookUpload(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, "workbook.html", newWorkbookPage(u, page{Error: "invalid form"}))
		return
	}
	plan, err := PlanFromForm(u.Frames, r.PostForm)
	if err != nil {
		s.render(w, http.StatusUnprocessableEntity, "workbook.html", newWorkbookPage(u, page{Error: err.Error()}))
		return
	}

	wb, err := workbook.Load(u.Name, bytes.NewReader(u.Data))
	if err != nil {
		s.render(w, http.StatusUnprocessableEntity, "workbook.html", newWorkbookPage(u, page{Error: "An error occurred: " + err.Error()}))
		return
	}
	defer wb.Close()

	summaries, err := synth.Augment(wb, *plan, synth.NewGenerator(s.opts.Seed))
	if err != nil {
		s.render(w, http.StatusUnprocessableEntity, "workbook.html", newWorkbookPage(u, page{Error: err.Error()}))
		return
	}
	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		s.render(w, http.StatusInternalServerError, "workbook.html", newWorkbookPage(u, page{Error: "An error occurred: " + err.Error()}))
		return
	}
	for _, sum := range summaries {
		s.log.Info("rows generated", "id", u.ID, "sheet", sum.Sheet, "added", sum.Added, "total", sum.Total)
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", attachment(SyntheticName(u.Name)))
	_, _ = buf.WriteTo(w)
}

// SyntheticName derives the download name of an augmented workbook from the
// uploaded one, reduced to a header-safe slug.
func SyntheticName(name string) string {
	base := slugify(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	if base == "" {
		base = "workbook"
	}
	return base + "_synthetic.xlsx"
}

// slugify lowercases s and folds every run of characters outside [a-z0-9]
// into a single dash.
func slugify(s string) string {
	var b strings.Builder
	gap := false
	for _, r := range strings.ToLower(s) {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			gap = true
			continue
		}
		if gap && b.Len() > 0 {
			b.WriteByte('-')
		}
		gap = false
		b.WriteRune(r)
	}
	return b.String()
}

// PlanFromForm reads the generate form. Sheets are chosen with sheet_<i>
// checkboxes; column widgets are keyed <field>_<sheet>_<column>.
func PlanFromForm(frames []*table.Frame, form url.Values) (*synth.Plan, error) {
	plan := &synth.Plan{}
	for i, f := range frames {
		if form.Get(fmt.Sprintf("sheet_%d", i)) == "" {
			continue
		}
		raw := strings.TrimSpace(form.Get(fmt.Sprintf("rows_%d", i)))
		rows, err := strconv.Atoi(raw)
		if err != nil || rows < 1 {
			return nil, &synth.RuleError{Sheet: f.Sheet, Err: fmt.Errorf("%w: %q", synth.ErrRowCount, raw)}
		}
		sp := synth.SheetPlan{Sheet: f.Sheet, Rows: rows, Columns: map[string]synth.Rule{}}

		for j, col := range f.Columns {
			key := fmt.Sprintf("%d_%d", i, j)
			mode := synth.Mode(strings.ToLower(form.Get("mode_" + key)))
			if mode == "" || mode == synth.ModeAuto {
				continue
			}
			rule := synth.Rule{Mode: mode}
			switch mode {
			case synth.ModeFixed:
				rule.Value = strings.TrimSpace(form.Get("value_" + key))
			case synth.ModeRange:
				lo, errLo := strconv.ParseFloat(strings.TrimSpace(form.Get("min_"+key)), 64)
				hi, errHi := strconv.ParseFloat(strings.TrimSpace(form.Get("max_"+key)), 64)
				if err := errors.Join(errLo, errHi); err != nil {
					return nil, &synth.RuleError{Sheet: f.Sheet, Column: col.Name, Err: fmt.Errorf("%w: min and max must be numbers", synth.ErrBadRange)}
				}
				rule.Min, rule.Max = &lo, &hi
			case synth.ModeList:
				rule.Values = synth.SplitList(form.Get("list_" + key))
			}
			sp.Columns[col.Name] = rule
		}
		plan.Sheets = append(plan.Sheets, sp)
	}
	if len(plan.Sheets) == 0 {
		return nil, errors.New("select at least one sheet")
	}
	return plan, nil
}
