package commands

import (
	"github.com/spf13/cobra"

	"github.com/PowerDNS/descstore/service"
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of loads to list")
}

var historyCmd = &cobra.Command{
	Use:          "history",
	Short:        "List the most recent completed loads",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			return err
		}
		svc, db, err := openService(rootCtx, service.Options{})
		if err != nil {
			return err
		}
		defer closeDB(db)

		h, err := svc.History(rootCtx, limit)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), h)
	},
}
