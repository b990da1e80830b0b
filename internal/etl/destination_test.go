package etl

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leads/internal/domain"
)

func sampleLeads() []domain.LeadRecord {
	return []domain.LeadRecord{
		{Name: "CITY PHARMACY", ODSCode: "FA123", Status: "Active", Address: "12 Briggate, Unit 4", City: "LEEDS", Postcode: "LS1 4AP", Country: "UK", Role: "COMMUNITY PHARMACY"},
		{Name: `Smith "The Chemist"`, ODSCode: "FB456", Status: "Active", Address: "Line one\nLine two", City: "YORK", Postcode: "YO1 7HH", Country: "UK", Role: ""},
		{Name: "Ümlaut Klinik", ODSCode: "NX1", Country: "UK"},
	}
}

func TestCSVWriter_RoundTrip(t *testing.T) {
	w := &CSVWriter{Dir: t.TempDir()}
	leads := sampleLeads()

	n, err := w.Write(context.Background(), "leads.csv", LeadSchema(), leads)
	require.NoError(t, err)
	assert.Equal(t, len(leads), n)

	got, err := ReadLeadFile(w.Path("leads.csv"))
	require.NoError(t, err)
	assert.Equal(t, leads, got)
}

func TestCSVWriter_HeaderAndQuoting(t *testing.T) {
	w := &CSVWriter{Dir: t.TempDir()}
	_, err := w.Write(context.Background(), "leads.csv", nil, sampleLeads()[:1])
	require.NoError(t, err)

	raw, err := os.ReadFile(w.Path("leads.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Name,ODS_Code,Status,Address,City,Postcode,Country,Role", lines[0])
	assert.Contains(t, lines[1], `"12 Briggate, Unit 4"`)

	rows, err := csv.NewReader(strings.NewReader(string(raw))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "12 Briggate, Unit 4", rows[1][3])
}

func TestCSVWriter_EmptyWritesNothing(t *testing.T) {
	dir := t.TempDir()
	w := &CSVWriter{Dir: dir}

	n, err := w.Write(context.Background(), "leads.csv", LeadSchema(), nil)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Zero(t, n)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no file, not even a header-only one")
}

func TestCSVWriter_CreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports", "2026")
	w := &CSVWriter{Dir: dir}

	_, err := w.Write(context.Background(), "leads.csv", LeadSchema(), sampleLeads())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "leads.csv"))
}

func TestCSVWriter_Overwrites(t *testing.T) {
	w := &CSVWriter{Dir: t.TempDir()}
	ctx := context.Background()

	_, err := w.Write(ctx, "leads.csv", LeadSchema(), sampleLeads())
	require.NoError(t, err)
	_, err = w.Write(ctx, "leads.csv", LeadSchema(), sampleLeads()[:1])
	require.NoError(t, err)

	got, err := ReadLeadFile(w.Path("leads.csv"))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	entries, err := os.ReadDir(w.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestCSVWriter_FileIsWorldReadable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	w := &CSVWriter{Dir: t.TempDir()}
	_, err := w.Write(context.Background(), "leads.csv", LeadSchema(), sampleLeads())
	require.NoError(t, err)

	info, err := os.Stat(w.Path("leads.csv"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestCSVWriter_UnwritableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	w := &CSVWriter{Dir: filepath.Join(blocker, "sub")}

	_, err := w.Write(context.Background(), "leads.csv", LeadSchema(), sampleLeads())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoData)
}

func TestReadLeadFile_RejectsForeignHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644))

	_, err := ReadLeadFile(path)
	assert.Error(t, err)
}
