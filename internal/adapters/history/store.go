// Package history persists a bounded, most-recent-first list of fetched quotes
// in a JSON file.
//
// The in-memory list and the file are two representations of the same history.
// They are synchronized only by Load and Save; there is no file locking, so
// concurrent processes writing the same file race and the last writer wins.
//
// On disk the quotes are stored oldest-first:
//
//	[
//	  {"quote": "...", "author": "...", "url": null, "vendor": "zenquotes", "fetch_time": "2021-01-01T10:00:00Z"},
//	  ...
//	]
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jsamuelsen/aquote/internal/domain"
)

// FileName is the name of the history file inside the data directory.
const FileName = "quotes.json"

// filePerm is the permission used when creating the history file.
const filePerm = 0o644

// dirPerm is the permission used when creating the data directory.
const dirPerm = 0o755

// Store is the bounded quote history.
// It is not safe for concurrent use.
type Store struct {
	// quotes is ordered most-recent-first.
	quotes  []domain.Quote
	path    string
	maxSize int
}

// record is the on-disk representation of a quote.
// Required fields are pointers so a missing key can be told apart from an
// empty value.
type record struct {
	Quote     *string    `json:"quote"      validate:"required"`
	Author    *string    `json:"author"     validate:"required"`
	URL       *string    `json:"url"`
	Vendor    *string    `json:"vendor"     validate:"required"`
	FetchTime *time.Time `json:"fetch_time" validate:"required"`
}

// validate checks records read from disk against the history schema.
var validate = validator.New(validator.WithRequiredStructEnabled())

// New creates a store from quotes ordered most-recent-first.
// It does not read path; use Load for that. Quotes beyond maxSize are dropped
// from the oldest end.
func New(quotes []domain.Quote, path string, maxSize int) (*Store, error) {
	if maxSize < 1 {
		return nil, domain.ErrInvalidMaxSize
	}

	if len(quotes) > maxSize {
		quotes = quotes[:maxSize]
	}

	stored := make([]domain.Quote, len(quotes), maxSize)
	copy(stored, quotes)

	return &Store{
		quotes:  stored,
		path:    path,
		maxSize: maxSize,
	}, nil
}

// Load reads the history at path.
// A missing file yields an empty history. A file that exists but cannot be
// read or parsed is an error. If the file holds more than maxSize quotes only
// the newest maxSize are kept.
func Load(path string, maxSize int) (*Store, error) {
	if maxSize < 1 {
		return nil, domain.ErrInvalidMaxSize
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(nil, path, maxSize)
	}

	if err != nil {
		return nil, domain.NewLoadError(path, err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, domain.NewLoadError(path, fmt.Errorf("%w: %w", domain.ErrMalformedHistory, err))
	}

	// json.Unmarshal leaves the slice nil only for a bare null.
	if records == nil {
		return nil, domain.NewLoadError(path, fmt.Errorf("%w: expected a JSON array, got null", domain.ErrMalformedHistory))
	}

	for i := range records {
		if err := validate.Struct(&records[i]); err != nil {
			return nil, domain.NewLoadError(path,
				fmt.Errorf("%w: entry %d: %w", domain.ErrMalformedHistory, i, err))
		}
	}

	// Newest is last on disk.
	quotes := make([]domain.Quote, 0, min(len(records), maxSize))
	for i := len(records) - 1; i >= 0 && len(quotes) < maxSize; i-- {
		quotes = append(quotes, records[i].toDomain())
	}

	return New(quotes, path, maxSize)
}

// Save writes the whole history to the store's path, oldest-first, creating
// parent directories as needed. The file is rewritten in full.
func (s *Store) Save() error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return domain.NewSaveError(s.path, err)
		}
	}

	records := make([]record, 0, len(s.quotes))
	for i := len(s.quotes) - 1; i >= 0; i-- {
		records = append(records, fromDomain(&s.quotes[i]))
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return domain.NewSaveError(s.path, err)
	}

	if err := os.WriteFile(s.path, data, filePerm); err != nil {
		return domain.NewSaveError(s.path, err)
	}

	return nil
}

// Push inserts q as the most recent quote, evicting the oldest quote first
// when the history is full. It does not save.
func (s *Store) Push(q domain.Quote) {
	if len(s.quotes) >= s.maxSize {
		s.quotes = s.quotes[:s.maxSize-1]
	}

	s.quotes = slices.Insert(s.quotes, 0, q)
}

// List returns the quotes ordered most-recent-first.
// The returned slice is a copy.
func (s *Store) List() []domain.Quote {
	return slices.Clone(s.quotes)
}

// Get returns the most recent quote, or false if the history is empty.
func (s *Store) Get() (domain.Quote, bool) {
	if len(s.quotes) == 0 {
		return domain.Quote{}, false
	}

	return s.quotes[0], true
}

// Len returns the number of stored quotes.
func (s *Store) Len() int {
	return len(s.quotes)
}

// MaxSize returns the history bound.
func (s *Store) MaxSize() int {
	return s.maxSize
}

// Path returns the file backing the history.
func (s *Store) Path() string {
	return s.path
}

// toDomain converts a validated record.
func (r *record) toDomain() domain.Quote {
	return domain.Quote{
		Text:      *r.Quote,
		Author:    *r.Author,
		URL:       r.URL,
		VendorKey: *r.Vendor,
		FetchTime: r.FetchTime.UTC(),
	}
}

func fromDomain(q *domain.Quote) record {
	fetchTime := q.FetchTime.UTC()

	return record{
		Quote:     &q.Text,
		Author:    &q.Author,
		URL:       q.URL,
		Vendor:    &q.VendorKey,
		FetchTime: &fetchTime,
	}
}
