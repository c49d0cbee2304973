package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPromptCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "prompt <control-id>",
		Short: "Print the prompt built for one control",
		Long: `Prints the exact prompt that a run would send for the given control
identifier. Nothing is sent and no files are written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(opts)
			if err != nil {
				return err
			}

			ds, _, err := s.loadDataset()
			if err != nil {
				return err
			}

			rec, ok := ds.Find(args[0])
			if !ok {
				return fmt.Errorf("control %q not found", args[0])
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), s.template.Build(rec.Description))
			return err
		},
	}
}
