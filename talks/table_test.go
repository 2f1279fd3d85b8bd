package talks

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const sampleTalks = `ruby101:
  title: Ruby Basics
  subtitle: Intro
go201:
  title: "  Concurrency in Go "
  subtitle: Goroutines and channels
  summary: Two days on the runtime scheduler.
`

func TestLoad_ParsesYAMLMapping(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "data/talks.yml", []byte(sampleTalks), 0o644))

	table, err := Load(fs, "data/talks.yml")
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	rec, ok := table.Lookup("ruby101")
	require.True(t, ok)
	require.Equal(t, Record{Code: "ruby101", Title: "Ruby Basics", Subtitle: "Intro"}, rec)

	rec, ok = table.Lookup("go201")
	require.True(t, ok)
	require.Equal(t, "Concurrency in Go", rec.Title)
	require.Equal(t, "Two days on the runtime scheduler.", rec.Summary)
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	table, err := Load(afero.NewMemMapFs(), "data/talks.yml")
	require.NoError(t, err)
	require.Equal(t, 0, table.Len())
}

func TestLoad_AcceptsJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "talks.json", []byte(`{"ruby101":{"title":"Ruby Basics","subtitle":"Intro"}}`), 0o644))

	table, err := Load(fs, "talks.json")
	require.NoError(t, err)
	rec, err := table.Get("ruby101")
	require.NoError(t, err)
	require.Equal(t, "Intro", rec.Subtitle)
}

func TestLoad_RejectsRecordWithoutTitle(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "talks.yml", []byte("ruby101:\n  subtitle: Intro\n"), 0o644))

	_, err := Load(fs, "talks.yml")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidRecord))
}

func TestLoad_RejectsMalformedYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "talks.yml", []byte("ruby101: [unclosed"), 0o644))

	_, err := Load(fs, "talks.yml")
	require.Error(t, err)
}

func TestGet_MissingCode(t *testing.T) {
	table, err := NewTable(map[string]Record{"ruby101": {Title: "Ruby Basics"}})
	require.NoError(t, err)

	_, err = table.Get("missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, ok := table.Lookup("missing")
	require.False(t, ok)
}

func TestNilTable(t *testing.T) {
	var table *Table
	_, ok := table.Lookup("ruby101")
	require.False(t, ok)
	require.Equal(t, 0, table.Len())
	require.Nil(t, table.Records())
}

func TestRecords_SortedByCode(t *testing.T) {
	table, err := NewTable(map[string]Record{
		"zeta":  {Title: "Z"},
		"alpha": {Title: "A"},
	})
	require.NoError(t, err)

	records := table.Records()
	require.Len(t, records, 2)
	require.Equal(t, "alpha", records[0].Code)
	require.Equal(t, "zeta", records[1].Code)
}
