package commands

import (
	"github.com/spf13/cobra"

	"github.com/PowerDNS/descstore/service"
	"github.com/PowerDNS/descstore/store"
)

func init() {
	rootCmd.AddCommand(pageCmd)
	pageCmd.Flags().IntP("size", "n", 50, "Page size")
	pageCmd.Flags().Int64("after", 0,
		"Cursor id: the last id of the previous page, or with --backward the first id of the next page")
	pageCmd.Flags().Bool("backward", false, "Page backward from the cursor (0 starts at the end)")
	pageCmd.Flags().Bool("all", false, "Walk all pages from the cursor and print one page per line")
}

var pageCmd = &cobra.Command{
	Use:          "page",
	Short:        "Print a page of descriptions in id order",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		size, err := cmd.Flags().GetInt("size")
		if err != nil {
			return err
		}
		cursor, err := cmd.Flags().GetInt64("after")
		if err != nil {
			return err
		}
		backward, err := cmd.Flags().GetBool("backward")
		if err != nil {
			return err
		}
		all, err := cmd.Flags().GetBool("all")
		if err != nil {
			return err
		}
		dir := store.Forward
		if backward {
			dir = store.Backward
		}

		svc, db, err := openService(rootCtx, service.Options{})
		if err != nil {
			return err
		}
		defer closeDB(db)

		for {
			p, err := svc.GetPage(rootCtx, size, cursor, dir)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), p); err != nil {
				return err
			}
			if !all {
				return nil
			}
			switch {
			case dir == store.Forward && p.HasNextPage:
				cursor = p.LastID()
			case dir == store.Backward && p.HasPreviousPage:
				cursor = p.FirstID()
			default:
				return nil
			}
		}
	},
}
