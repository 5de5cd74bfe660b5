package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResampleCommand(ctx *commandContext) *cobra.Command {
	var (
		before, after float64
		name          string
	)

	cmd := &cobra.Command{
		Use:   "resample PATH",
		Short: "Resample a one-band raster to a new pixel size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.setup(); err != nil {
				return err
			}
			out, err := ctx.backend.Resample(args[0], before, after, name)
			if err != nil {
				return err
			}
			ctx.log.Infof("resample: %s", out)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().Float64Var(&before, "before", 0, "Current pixel size")
	cmd.Flags().Float64Var(&after, "after", 0, "Target pixel size")
	cmd.Flags().StringVar(&name, "name", "", "Output name without extension")
	cmd.MarkFlagRequired("before")
	cmd.MarkFlagRequired("after")
	return cmd
}
