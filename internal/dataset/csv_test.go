package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"qrguard/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV_ReadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dataset.csv")
	rows := []model.DatasetRow{
		{Index: 0, Payload: "http://example.com/?a=1,b=2", Label: 0},
		{Index: 3, Payload: "say \"hi\"\nthen leave", Label: 1},
	}

	require.NoError(t, WriteCSV(path, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "index,payload,label\n")

	got, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestReadCSV_ColumnOrderAndBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.csv")
	require.NoError(t, os.WriteFile(path, []byte("\ufefflabel,payload\n1,evil\n0.0,good\n"), 0644))

	rows, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []model.DatasetRow{
		{Index: 0, Payload: "evil", Label: 1},
		{Index: 1, Payload: "good", Label: 0},
	}, rows)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantSchema bool
	}{
		{name: "missing label column", content: "index,payload\n0,a\n", wantSchema: true},
		{name: "missing payload column", content: "label\n1\n", wantSchema: true},
		{name: "empty file", content: "", wantSchema: true},
		{name: "bad label", content: "payload,label\na,yes\n"},
		{name: "fractional label", content: "payload,label\na,0.5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "d.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := ReadCSV(path)
			require.Error(t, err)
			if tt.wantSchema {
				assert.ErrorIs(t, err, ErrSchema)
			} else {
				assert.NotErrorIs(t, err, ErrSchema)
			}
		})
	}
}

func TestReadCSV_MissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "absent.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCleanRows(t *testing.T) {
	rows := []model.DatasetRow{
		{Index: 0, Payload: "  keep  ", Label: 1},
		{Index: 1, Payload: "   ", Label: 0},
		{Index: 2, Payload: "", Label: 1},
		{Index: 3, Payload: "also", Label: 0},
	}

	assert.Equal(t, []model.DatasetRow{
		{Index: 0, Payload: "keep", Label: 1},
		{Index: 3, Payload: "also", Label: 0},
	}, CleanRows(rows))
}
