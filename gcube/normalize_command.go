package main

import (
	"fmt"

	"github.com/nci/gcube/cube"
	"github.com/nci/gcube/preprocess"
	"github.com/spf13/cobra"
)

func newNormalizeCommand(ctx *commandContext) *cobra.Command {
	var (
		dtype     string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "normalize PATH...",
		Short: "Rescale rasters to a data type's range with shared min and max",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.setup(); err != nil {
				return err
			}
			dt := ctx.settings.DefaultDtype
			if dtype != "" {
				var err error
				if dt, err = cube.ParseDataType(dtype); err != nil {
					return err
				}
			}
			written, err := preprocess.NewNormalizer(ctx.backend, ctx.log).NormalizeCommonLayers(args, dt, overwrite)
			if err != nil {
				return err
			}
			for _, p := range written {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dtype, "dtype", "", "Target data type (default from config)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace the inputs instead of writing *_norm_* files")
	return cmd
}
