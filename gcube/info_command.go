package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nci/gcube/cube"
	"github.com/spf13/cobra"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info PATH",
		Short: "Show raster metadata and footprint",
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

			feat, err := cube.Footprint(m)
			if err != nil {
				return err
			}
			footprint, err := json.Marshal(feat)
			if err != nil {
				return err
			}

			if asJSON {
				out, err := json.MarshalIndent(map[string]interface{}{
					"path":      args[0],
					"metadata":  m,
					"footprint": json.RawMessage(footprint),
				}, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}

			size := "-"
			if fi, err := os.Stat(args[0]); err == nil {
				size = humanize.Bytes(uint64(fi.Size()))
			}
			nodata := "-"
			if m.HasNoData {
				nodata = strconv.FormatFloat(m.NoData, 'g', -1, 64)
			}

			tw := table.NewWriter()
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"Field", "Value"})
			tw.AppendRows([]table.Row{
				{"Path", args[0]},
				{"Driver", m.Driver},
				{"Data type", m.DataType.String()},
				{"Bands", m.Count},
				{"Size", fmt.Sprintf("%d x %d", m.Width, m.Height)},
				{"Pixel size", m.Transform.PixelSize()},
				{"Transform", fmt.Sprint([6]float64(m.Transform))},
				{"No data", nodata},
				{"File size", size},
				{"Footprint", string(footprint)},
			})
			fmt.Fprintln(cmd.OutOrStdout(), tw.Render())
			if m.CRS != "" {
				fmt.Fprintln(cmd.OutOrStdout(), m.CRS)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}
