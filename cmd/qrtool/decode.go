package main

import (
	"fmt"
	"os"
	"qrguard/internal/repository"
	"qrguard/internal/repository/sqlite"
	"qrguard/internal/service/pipeline"
	"qrguard/internal/service/qr"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func decodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode pickled QR bitmaps into a payload CSV",
		Long: `Load the bitmap and label pickles, recover each QR payload by trying
normal and inverted polarity at 6x, 8x and 10x, and write the decoded rows
to a CSV with columns index,payload,label.`,
		RunE: runDecode,
	}

	cmd.Flags().String("x", "", "bitmaps pickle, shape (N,H,W) (env X_PATH)")
	cmd.Flags().String("y", "", "labels pickle, shape (N,) (env Y_PATH)")
	cmd.Flags().String("out", "", "output CSV (env OUT_CSV)")
	cmd.Flags().Int("max-n", 0, "decode at most this many bitmaps, 0 = all (env MAX_N)")
	cmd.Flags().Bool("no-progress", false, "disable the progress bar")

	bindFlag(cmd, "X_PATH", "x")
	bindFlag(cmd, "Y_PATH", "y")
	bindFlag(cmd, "OUT_CSV", "out")
	bindFlag(cmd, "MAX_N", "max-n")

	return cmd
}

func runDecode(cmd *cobra.Command, _ []string) error {
	env, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer env.close()

	decoder := qr.NewDecoder(env.logger)
	defer decoder.Close()

	var runs repository.DecodeRunRepository
	if env.db != nil {
		runs = sqlite.NewDecodeRunRepository(env.db)
	}

	svc := pipeline.NewService(decoder, runs, env.logger)
	noProgress, _ := cmd.Flags().GetBool("no-progress")
	if !noProgress && term.IsTerminal(int(os.Stderr.Fd())) {
		svc.SetProgressWriter(os.Stderr)
	}

	summary, err := svc.Run(cmd.Context(), pipeline.OptionsFromConfig(env.cfg))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nSaved: %s\n", env.cfg.OutputCSV)
	fmt.Fprintf(out, "Total rows: %d | kept (decoded): %d | dropped: %d\n", summary.Attempted, summary.Decoded, summary.Dropped)
	for i, row := range summary.Rows {
		if i == 5 {
			break
		}
		fmt.Fprintf(out, "%6d  %-60s  %d\n", row.Index, row.Payload, row.Label)
	}
	return nil
}
