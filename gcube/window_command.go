package main

import (
	"fmt"

	"github.com/nci/gcube/cube"
	"github.com/spf13/cobra"
)

func newWindowCommand(ctx *commandContext) *cobra.Command {
	var rows, cols, bands, destDir, name string

	cmd := &cobra.Command{
		Use:   "window PATH",
		Short: "Crop a raster to a row, column and band window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.setup(); err != nil {
				return err
			}
			ds, err := ctx.backend.Open(args[0])
			if err != nil {
				return err
			}
			m := ds.Metadata()
			ds.Close()

			r, err := parseRange(rows, [2]int{0, m.Height})
			if err != nil {
				return err
			}
			c, err := parseRange(cols, [2]int{0, m.Width})
			if err != nil {
				return err
			}
			b, err := parseRange(bands, [2]int{0, m.Count})
			if err != nil {
				return err
			}
			w := cube.Window{
				RowStart: r[0], RowStop: r[1],
				ColStart: c[0], ColStop: c[1],
				BandStart: b[0], BandStop: b[1],
			}

			cb, err := ctx.engine.ReadWindow(args[0], w)
			if err != nil {
				return err
			}
			path, err := ctx.engine.Materialize(cb.Table, cb.Metadata, name, destDir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&rows, "rows", "", "Row range start:stop")
	cmd.Flags().StringVar(&cols, "cols", "", "Column range start:stop")
	cmd.Flags().StringVar(&bands, "bands", "", "Zero-based band range start:stop")
	cmd.Flags().StringVar(&destDir, "out", ".", "Output directory")
	cmd.Flags().StringVar(&name, "name", "window", "Output name")
	return cmd
}
