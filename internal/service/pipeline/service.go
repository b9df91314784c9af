package pipeline

import (
	"context"
	"fmt"
	"io"
	"qrguard/internal/config"
	"qrguard/internal/dataset"
	"qrguard/internal/logger"
	"qrguard/internal/model"
	"qrguard/internal/repository"
	"time"

	"github.com/schollz/progressbar/v3"
)

// LogInterval is how many bitmaps are processed between progress log lines.
const LogInterval = 500

// Options selects the inputs and output of a decode run.
type Options struct {
	BitmapsPath string
	LabelsPath  string
	OutputCSV   string
	MaxRows     int // 0 = all
}

// OptionsFromConfig reads X_PATH, Y_PATH, OUT_CSV and MAX_N.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BitmapsPath: cfg.BitmapsPath,
		LabelsPath:  cfg.LabelsPath,
		OutputCSV:   cfg.OutputCSV,
		MaxRows:     cfg.MaxRows,
	}
}

// Summary counts the outcome of a decode run.
type Summary struct {
	Attempted int
	Decoded   int
	Dropped   int
	Rows      []model.DatasetRow
}

// Service converts pickled QR bitmaps into a labelled payload CSV.
type Service struct {
	sweeper  *dataset.Sweeper
	runs     repository.DecodeRunRepository
	logger   *logger.Logger
	progress io.Writer
}

// NewService creates the pipeline. runs may be nil to skip the ledger.
func NewService(decoder dataset.ImageDecoder, runs repository.DecodeRunRepository, logger *logger.Logger) *Service {
	return &Service{
		sweeper: dataset.NewSweeper(decoder),
		runs:    runs,
		logger:  logger,
	}
}

// SetProgressWriter enables a progress bar rendered to w.
func (s *Service) SetProgressWriter(w io.Writer) {
	s.progress = w
}

// Run decodes every bitmap, writes the rows that produced a payload and
// returns the counts. Cancelling ctx stops the run before the CSV is written.
func (s *Service) Run(ctx context.Context, opts Options) (Summary, error) {
	started := time.Now().UTC()

	bitmaps, labels, err := loadInputs(opts)
	if err != nil {
		return Summary{}, err
	}

	n := len(bitmaps)
	if opts.MaxRows > 0 && opts.MaxRows < n {
		n = opts.MaxRows
	}
	s.logger.Info("Loaded %d bitmaps (%dx%d) and %d labels. Processing n=%d",
		len(bitmaps), bitmapWidth(bitmaps), bitmapHeight(bitmaps), len(labels), n)

	bar := s.newProgressBar(n)

	var summary Summary
	var failures []model.DecodeFailure
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("decode run interrupted after %d bitmaps: %w", summary.Attempted, err)
		}

		payload, used, ok, err := s.sweeper.Recover(bitmaps[i])
		if err != nil {
			s.logger.Warning("Bitmap %d: %v", i, err)
			ok = false
		}

		summary.Attempted++
		if ok {
			summary.Decoded++
			summary.Rows = append(summary.Rows, model.DatasetRow{Index: i, Payload: payload, Label: labels[i]})
			if used != s.sweeper.Attempts()[0] {
				s.logger.Info("Bitmap %d decoded with %s", i, used)
			}
		} else {
			summary.Dropped++
			failures = append(failures, model.DecodeFailure{BitmapIndex: i, Label: labels[i]})
		}

		if bar != nil {
			_ = bar.Add(1)
		}
		if (i+1)%LogInterval == 0 {
			s.logger.Info("Processed %d/%d | decoded_ok=%d decoded_fail=%d", i+1, n, summary.Decoded, summary.Dropped)
		}
	}

	if err := dataset.WriteCSV(opts.OutputCSV, summary.Rows); err != nil {
		return summary, err
	}
	s.logger.Info("Saved: %s", opts.OutputCSV)
	s.logger.Info("Total rows: %d | kept (decoded): %d | dropped: %d", summary.Attempted, summary.Decoded, summary.Dropped)

	s.record(&model.DecodeRun{
		StartedAt:   started,
		FinishedAt:  time.Now().UTC(),
		BitmapsPath: opts.BitmapsPath,
		LabelsPath:  opts.LabelsPath,
		OutputCSV:   opts.OutputCSV,
		Attempted:   summary.Attempted,
		Decoded:     summary.Decoded,
		Dropped:     summary.Dropped,
	}, failures)

	return summary, nil
}

func loadInputs(opts Options) ([]dataset.Bitmap, []int, error) {
	x, err := dataset.LoadArray(opts.BitmapsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load bitmaps: %w", err)
	}
	y, err := dataset.LoadArray(opts.LabelsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load labels: %w", err)
	}

	if x.Len() != y.Len() {
		return nil, nil, fmt.Errorf("%w: length mismatch: X=%d y=%d", dataset.ErrShapeMismatch, x.Len(), y.Len())
	}

	bitmaps, err := x.Bitmaps()
	if err != nil {
		return nil, nil, err
	}
	labels, err := y.Labels()
	if err != nil {
		return nil, nil, err
	}
	return bitmaps, labels, nil
}

func (s *Service) newProgressBar(n int) *progressbar.ProgressBar {
	if s.progress == nil {
		return nil
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(s.progress),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Decoding bitmaps"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(s.progress)
		}),
	)
}

func (s *Service) record(run *model.DecodeRun, failures []model.DecodeFailure) {
	if s.runs == nil {
		return
	}
	id, err := s.runs.Insert(run, failures)
	if err != nil {
		s.logger.Warning("Could not record decode run: %v", err)
		return
	}
	s.logger.Info("Recorded decode run #%d", id)
}

func bitmapWidth(b []dataset.Bitmap) int {
	if len(b) == 0 {
		return 0
	}
	return b[0].Width
}

func bitmapHeight(b []dataset.Bitmap) int {
	if len(b) == 0 {
		return 0
	}
	return b[0].Height
}
