package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"qrguard/internal/repository/sqlite"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent decode and training runs from the ledger",
		RunE:  runRuns,
	}
	cmd.Flags().Int("limit", 10, "number of runs of each kind to show")
	cmd.Flags().Int64("failures", 0, "list the unreadable bitmaps of this decode run instead")
	return cmd
}

func runRuns(cmd *cobra.Command, _ []string) error {
	env, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer env.close()

	if env.db == nil {
		return errors.New("run ledger is disabled (set DB_PATH or --db)")
	}
	decodeRuns := sqlite.NewDecodeRunRepository(env.db)
	if id, _ := cmd.Flags().GetInt64("failures"); id > 0 {
		return printFailures(cmd, decodeRuns, id)
	}
	limit, _ := cmd.Flags().GetInt("limit")

	decodes, err := decodeRuns.GetRecent(limit)
	if err != nil {
		return err
	}
	trainings, err := sqlite.NewTrainingRunRepository(env.db).GetRecent(limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headerStyle.Render("DECODE RUNS"))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tATTEMPTED\tDECODED\tDROPPED\tOUTPUT")
	for _, r := range decodes {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n", r.ID, r.StartedAt.Format(time.DateTime),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Second), r.Attempted, r.Decoded, r.Dropped, r.OutputCSV)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render("TRAINING RUNS"))
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tTRAIN\tTEST\tROC AUC\tACCURACY\tMODEL")
	for _, r := range trainings {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%.4f\t%.4f\t%s\n", r.ID, r.CreatedAt.Format(time.DateTime),
			r.TrainSize, r.TestSize, r.ROCAUC, r.Accuracy, r.ModelPath)
	}
	return w.Flush()
}

func printFailures(cmd *cobra.Command, decodeRuns *sqlite.DecodeRunRepository, id int64) error {
	run, err := decodeRuns.GetByID(id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("decode run #%d not found", id)
	}
	failures, err := decodeRuns.GetFailures(id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("DECODE RUN #%d", run.ID)))
	fmt.Fprintf(out, "%s -> %s: %d attempted, %d decoded, %d dropped\n", run.BitmapsPath, run.OutputCSV, run.Attempted, run.Decoded, run.Dropped)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BITMAP\tLABEL")
	for _, f := range failures {
		fmt.Fprintf(w, "%d\t%d\n", f.BitmapIndex, f.Label)
	}
	return w.Flush()
}
