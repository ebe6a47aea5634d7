package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ishanyash/btr-propflip/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportFileName(t *testing.T) {
	generated := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		postcode string
		want     string
	}{
		{"postcode", "SW1A 1AA", "btr-report-sw1a1aa-20250601.pdf"},
		{"no postcode falls back to id", "", "btr-report-abc123-20250601.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := domain.Report{ID: "abc123", GeneratedAt: generated}
			r.Profile.Postcode = tt.postcode
			assert.Equal(t, tt.want, reportFileName(r))
		})
	}
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "report.pdf")

	require.NoError(t, writeFile(path, []byte("%PDF")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(got))
}

func TestVersionCommand(t *testing.T) {
	cmd := createVersionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "btr dev\n", out.String())
}

func TestReportCommandRequiresInput(t *testing.T) {
	cmd := createReportCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--address or --postcode is required")
}

func TestPPDImportRequiresFile(t *testing.T) {
	cmd := createPPDImportCmd()
	cmd.SetArgs([]string{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	assert.Error(t, cmd.Execute())
}
