package main

import (
	"fmt"
	"qrguard/internal/dataset"

	"github.com/spf13/cobra"
)

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <pickle>",
		Short: "Describe the object stored in a pickle file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Loading:", args[0])

			obj, err := dataset.LoadPickle(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(out, dataset.Summarize(obj))
			return nil
		},
	}
}
