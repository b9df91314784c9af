package main

import (
	"fmt"
	"qrguard/internal/repository"
	"qrguard/internal/repository/sqlite"
	"qrguard/internal/service/training"

	"github.com/spf13/cobra"
)

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the payload classifier from a CSV",
		Long: `Fit a character 3-5 gram TF-IDF vectorizer and a class-balanced logistic
regression on a stratified 80% of the dataset, report ROC-AUC and a
classification report on the remaining 20%, and save the model artifact.`,
		RunE: runTrain,
	}

	cmd.Flags().String("data", "", "dataset CSV with payload,label columns (env DATA_PATH)")
	cmd.Flags().String("model-out", "", "where to write the model artifact (env MODEL_OUT)")

	bindFlag(cmd, "DATA_PATH", "data")
	bindFlag(cmd, "MODEL_OUT", "model-out")

	return cmd
}

func runTrain(cmd *cobra.Command, _ []string) error {
	env, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer env.close()

	var runs repository.TrainingRunRepository
	if env.db != nil {
		runs = sqlite.NewTrainingRunRepository(env.db)
	}

	result, err := training.NewService(runs, env.logger).Run(cmd.Context(), training.OptionsFromConfig(env.cfg))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ROC AUC: %v\n", result.ROCAUC)
	fmt.Fprintln(out, result.Report)
	fmt.Fprintf(out, "Saved model => %s\n", env.cfg.ModelOutput)
	return nil
}
