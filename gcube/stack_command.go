package main

import (
	"fmt"

	"github.com/nci/gcube/catalog"
	"github.com/nci/gcube/cube"
	"github.com/nci/gcube/discovery"
	"github.com/nci/gcube/utils"
	"github.com/spf13/cobra"
)

func newStackCommand(ctx *commandContext) *cobra.Command {
	var (
		manifest string
		name     string
		destDir  string
		dtype    string
		sort     bool
		register bool
	)

	cmd := &cobra.Command{
		Use:   "stack [paths...]",
		Short: "Stack single-band rasters into a multi-band cube",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.setup(); err != nil {
				return err
			}

			var job *utils.StackJob
			if manifest != "" {
				j, err := utils.LoadStackJob(manifest)
				if err != nil {
					return err
				}
				job = j
			} else {
				job = &utils.StackJob{Name: name, DestDir: destDir, Sort: sort, Sources: args}
				job.Dtype = ctx.settings.DefaultDtype
				if dtype != "" {
					dt, err := cube.ParseDataType(dtype)
					if err != nil {
						return err
					}
					job.Dtype = dt
				}
				if job.Name == "" || job.DestDir == "" {
					return fmt.Errorf("stack: --name and --dest are required without --manifest")
				}
			}

			sources, err := jobSources(ctx, job)
			if err != nil {
				return err
			}

			res, err := ctx.engine.Stack(sources, job.DestDir, job.Name, job.Dtype, job.Sort)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Path)
			if res.SidecarPath != "" {
				fmt.Fprintln(cmd.OutOrStdout(), res.SidecarPath)
			}

			if !register {
				return nil
			}
			cat, err := ctx.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			entry, err := catalog.NewEntry(job.Name, res.Path, res.Metadata, res.Dates)
			if err != nil {
				return err
			}
			return cat.Register(cmd.Context(), entry)
		},
	}

	cmd.Flags().StringVarP(&manifest, "manifest", "m", "", "YAML stacking manifest")
	cmd.Flags().StringVar(&name, "name", "", "Cube name")
	cmd.Flags().StringVar(&destDir, "dest", "", "Destination directory")
	cmd.Flags().StringVar(&dtype, "dtype", "", "Cube data type (default from config)")
	cmd.Flags().BoolVar(&sort, "sort", false, "Order bands by acquisition date and write a date sidecar")
	cmd.Flags().BoolVar(&register, "register", false, "Record the cube in the catalog")

	return cmd
}

// jobSources resolves the explicit sources of job followed by the
// results of its search block.
func jobSources(ctx *commandContext, job *utils.StackJob) ([]string, error) {
	sources := append([]string(nil), job.Sources...)
	if job.Search == nil {
		return sources, nil
	}

	s := discovery.New(ctx.log)
	q := job.Search
	switch {
	case q.Expression != "":
		found, err := s.FindExpr(q.Root, q.Expression, false)
		if err != nil {
			return nil, err
		}
		sources = append(sources, found...)
	case q.MaxCloud > 0:
		scenes, err := s.MetaSearch(q.Root, q.MaxCloud)
		if err != nil {
			return nil, err
		}
		for _, safe := range scenes {
			bands, err := s.SceneBands(safe, q.Suffix)
			if err != nil {
				return nil, err
			}
			sources = append(sources, bands...)
		}
	default:
		found, err := s.Find(q.Root, discovery.Query{
			Mode:     discovery.Files,
			Prefix:   q.Prefix,
			Contains: q.Contains,
			Suffix:   q.Suffix,
		})
		if err != nil {
			return nil, err
		}
		sources = append(sources, found...)
	}
	return sources, nil
}
