package web

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thywilljoshua/datasmith/internal/convert"
	"github.com/thywilljoshua/datasmith/internal/table"
)

// UploadKind separates documents headed for conversion from workbooks
// headed for synthesis.
type UploadKind string

const (
	UploadDocument UploadKind = "document"
	UploadWorkbook UploadKind = "workbook"
)

// Upload is one file the user sent, plus the state of its page.
type Upload struct {
	ID       string
	Kind     UploadKind
	Name     string
	MIMEType string
	Data     []byte
	Created  time.Time

	// Documents
	DocKind  convert.Kind
	Rotation int
	Text     string
	Result   *convert.Result

	// Workbooks
	Frames []*table.Frame
}

// Store keeps uploads in memory for the life of the process. The oldest
// entries are dropped once max is reached.
type Store struct {
	mu    sync.Mutex
	items map[string]*Upload
	order []string
	max   int
}

func NewStore(max int) *Store {
	if max <= 0 {
		max = 64
	}
	return &Store{items: make(map[string]*Upload), max: max}
}

// Put stores u under a fresh id and returns it.
func (s *Store) Put(u Upload) string {
	u.ID = uuid.NewString()
	if u.Created.IsZero() {
		u.Created = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.order) >= s.max {
		delete(s.items, s.order[0])
		s.order = s.order[1:]
	}
	s.items[u.ID] = &u
	s.order = append(s.order, u.ID)
	return u.ID
}

// Get returns a snapshot of the upload.
func (s *Store) Get(id string) (Upload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.items[id]
	if !ok {
		return Upload{}, false
	}
	return *u, true
}

// Update applies fn to the stored upload under the store lock.
func (s *Store) Update(id string, fn func(*Upload)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.items[id]
	if !ok {
		return false
	}
	fn(u)
	return true
}

// Len reports how many uploads are held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
