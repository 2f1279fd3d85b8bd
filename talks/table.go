package talks

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNotFound is returned when a code has no entry in the table.
	ErrNotFound = errors.New("talk not found")
	// ErrInvalidRecord wraps validation failures raised while loading talk data.
	ErrInvalidRecord = errors.New("invalid talk record")
)

// Record describes a single talk (course session) keyed by its page code.
type Record struct {
	Code     string `yaml:"-" json:"code"`
	Title    string `yaml:"title" json:"title" validate:"required"`
	Subtitle string `yaml:"subtitle" json:"subtitle"`
	Summary  string `yaml:"summary" json:"summary,omitempty"`
}

// Table is the immutable set of talks loaded at build time.
type Table struct {
	records map[string]Record
}

var validate = validator.New()

// NewTable validates the provided records and builds a table from them.
// The map key wins over any Code set on the record.
func NewTable(records map[string]Record) (*Table, error) {
	table := &Table{records: make(map[string]Record, len(records))}
	var errs []error
	for key, rec := range records {
		code := strings.TrimSpace(key)
		if code == "" {
			errs = append(errs, fmt.Errorf("%w: empty code", ErrInvalidRecord))
			continue
		}
		rec.Code = code
		rec.Title = strings.TrimSpace(rec.Title)
		rec.Subtitle = strings.TrimSpace(rec.Subtitle)
		rec.Summary = strings.TrimSpace(rec.Summary)
		if err := validate.Struct(rec); err != nil {
			errs = append(errs, fmt.Errorf("%w %q: %v", ErrInvalidRecord, code, err))
			continue
		}
		if _, dup := table.records[code]; dup {
			errs = append(errs, fmt.Errorf("%w: duplicate code %q", ErrInvalidRecord, code))
			continue
		}
		table.records[code] = rec
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return table, nil
}

// Empty returns a table without records.
func Empty() *Table {
	return &Table{records: map[string]Record{}}
}

// Load reads a YAML (or JSON) mapping of code -> record from path.
// A missing file yields an empty table.
func Load(fs afero.Fs, path string) (*Table, error) {
	data, err := afero.ReadFile(fs, filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Empty(), nil
		}
		return nil, fmt.Errorf("read talks: %w", err)
	}

	var raw map[string]Record
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse talks %s: %w", path, err)
	}

	table, err := NewTable(raw)
	if err != nil {
		return nil, fmt.Errorf("talks %s: %w", path, err)
	}
	return table, nil
}

// Lookup returns the record for code and whether it exists.
func (t *Table) Lookup(code string) (Record, bool) {
	if t == nil {
		return Record{}, false
	}
	rec, ok := t.records[code]
	return rec, ok
}

// Get is Lookup with a not-found error.
func (t *Table) Get(code string) (Record, error) {
	rec, ok := t.Lookup(code)
	if !ok {
		return Record{}, fmt.Errorf("%w: %q", ErrNotFound, code)
	}
	return rec, nil
}

// Len reports the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Records returns all records ordered by code.
func (t *Table) Records() []Record {
	if t == nil {
		return nil
	}
	codes := make([]string, 0, len(t.records))
	for code := range t.records {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	out := make([]Record, 0, len(codes))
	for _, code := range codes {
		out = append(out, t.records[code])
	}
	return out
}
