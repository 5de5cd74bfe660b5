package main

import (
	"fmt"
	"math"

	"github.com/nci/gcube/cube"
	"github.com/spf13/cobra"
)

func newExtremumCommand(ctx *commandContext) *cobra.Command {
	var datesFile, mode, destDir, name string

	cmd := &cobra.Command{
		Use:   "extremum CUBE",
		Short: "Write the day of year of each pixel's maximum or minimum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.setup(); err != nil {
				return err
			}
			md, err := cube.ParseMode(mode)
			if err != nil {
				return err
			}
			dates, err := cube.ReadDateSidecar(datesFile)
			if err != nil {
				return err
			}
			cb, err := ctx.engine.ReadFull(args[0])
			if err != nil {
				return err
			}

			tbl := cb.Table
			if cb.Metadata.HasNoData {
				tbl = cube.MaskNoData(tbl, cb.Metadata.NoData)
			}
			doy, err := cube.ExtremeDOY(tbl, dates, md)
			if err != nil {
				return err
			}

			out, err := cube.NewTable(1, len(doy), doy)
			if err != nil {
				return err
			}
			m := cb.Metadata.
				WithCount(1).
				WithDataType(cube.Float32).
				WithNoData(math.NaN())
			path, err := ctx.engine.Materialize(out, m, name, destDir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&datesFile, "dates", "", "Date sidecar of the cube")
	cmd.Flags().StringVar(&mode, "mode", "max", "max or min")
	cmd.Flags().StringVar(&destDir, "out", ".", "Output directory")
	cmd.Flags().StringVar(&name, "name", "", "Output name")
	cmd.MarkFlagRequired("dates")
	cmd.MarkFlagRequired("name")
	return cmd
}
