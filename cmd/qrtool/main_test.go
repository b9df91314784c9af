package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"qrguard/internal/model"
	"qrguard/internal/repository/sqlite"
	"qrguard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInspectCommand(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "labels.pickle",
		testutil.NumpyPickle([]int{4}, "i8", '<', testutil.Int64LE(0, 1, 1, 0)))

	out, err := execute(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "numpy.ndarray")
	assert.Contains(t, out, "shape: [4]")
}

func TestInspectCommand_RequiresPath(t *testing.T) {
	_, err := execute(t, "inspect")
	assert.Error(t, err)
}

func TestTrainThenRuns(t *testing.T) {
	dir := t.TempDir()

	lines := []string{"index,payload,label"}
	for i := 0; i < 15; i++ {
		lines = append(lines,
			fmt.Sprintf("%d,https://news.example.org/article/%d,0", 2*i, i),
			fmt.Sprintf("%d,http://verify-account-%d.click/login,1", 2*i+1, i))
	}
	data := filepath.Join(dir, "dataset.csv")
	require.NoError(t, os.WriteFile(data, []byte(strings.Join(lines, "\n")+"\n"), 0644))

	modelPath := filepath.Join(dir, "models", "model.json")
	t.Setenv("DATA_PATH", data)
	t.Setenv("MODEL_OUT", modelPath)
	t.Setenv("DB_PATH", filepath.Join(dir, "ledger.db"))
	t.Setenv("LOG_DIR", filepath.Join(dir, "logs"))

	out, err := execute(t, "train")
	require.NoError(t, err)
	assert.Contains(t, out, "ROC AUC:")
	assert.Contains(t, out, "Saved model => "+modelPath)
	assert.FileExists(t, modelPath)

	out, err = execute(t, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "TRAINING RUNS")
	assert.Contains(t, out, modelPath)
}

func TestRunsFailures(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ledger.db")
	db, err := sqlite.New(dbPath)
	require.NoError(t, err)
	now := time.Now().UTC()
	id, err := sqlite.NewDecodeRunRepository(db).Insert(
		&model.DecodeRun{StartedAt: now, FinishedAt: now, BitmapsPath: "x.pickle", OutputCSV: "out.csv", Attempted: 5, Decoded: 3, Dropped: 2},
		[]model.DecodeFailure{{BitmapIndex: 4, Label: 1}, {BitmapIndex: 1, Label: 0}})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	t.Setenv("DB_PATH", dbPath)
	t.Setenv("LOG_DIR", filepath.Join(dir, "logs"))

	out, err := execute(t, "runs", "--failures", strconv.FormatInt(id, 10))
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("DECODE RUN #%d", id))
	assert.Contains(t, out, "5 attempted, 3 decoded, 2 dropped")
	assert.Less(t, strings.Index(out, "\n1 "), strings.Index(out, "\n4 "))

	_, err = execute(t, "runs", "--failures", "99")
	assert.ErrorContains(t, err, "not found")
}
