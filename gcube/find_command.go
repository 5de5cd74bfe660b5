package main

import (
	"fmt"
	"strconv"

	"github.com/nci/gcube/discovery"
	"github.com/spf13/cobra"
)

func newFindCommand(ctx *commandContext) *cobra.Command {
	var (
		dirs     bool
		prefix   string
		contains string
		suffix   string
		expr     string
		sort     bool
		maxCloud float64
		record   []string
	)

	cmd := &cobra.Command{
		Use:   "find ROOT",
		Short: "Search a directory tree for scenes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.setup(); err != nil {
				return err
			}
			s := discovery.New(ctx.log)
			root := args[0]

			var (
				found []string
				err   error
			)
			switch {
			case len(record) > 0:
				if len(record) != 3 {
					return fmt.Errorf("find: --record wants PATH,ROW,YEAR")
				}
				year, perr := strconv.Atoi(record[2])
				if perr != nil {
					return fmt.Errorf("find: year %q: %v", record[2], perr)
				}
				found, err = s.FindRecord(root, record[0], record[1], year, sort)
			case cmd.Flags().Changed("max-cloud"):
				found, err = s.MetaSearch(root, maxCloud)
			case expr != "":
				found, err = s.FindExpr(root, expr, sort)
			default:
				mode := discovery.Files
				if dirs {
					mode = discovery.Dirs
				}
				found, err = s.Find(root, discovery.Query{
					Mode:     mode,
					Prefix:   prefix,
					Contains: contains,
					Suffix:   suffix,
					Sort:     sort,
				})
			}
			if err != nil {
				return err
			}
			for _, f := range found {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dirs, "dirs", false, "Match directories instead of files")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Name prefix")
	cmd.Flags().StringVar(&contains, "contains", "", "Name substring")
	cmd.Flags().StringVar(&suffix, "suffix", "", "Name suffix")
	cmd.Flags().StringVar(&expr, "expr", "", `Boolean expression over path, name and type, e.g. type == "f"`)
	cmd.Flags().BoolVar(&sort, "sort", false, "Order results by acquisition date")
	cmd.Flags().Float64Var(&maxCloud, "max-cloud", 0, "Keep Level-2A scenes with at most this cloud percentage")
	cmd.Flags().StringSliceVar(&record, "record", nil, "Satellite PATH,ROW,YEAR")
	return cmd
}
