package commands

import (
	"github.com/spf13/cobra"

	"github.com/PowerDNS/descstore/service"
)

func init() {
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:          "get SOURCE_ID",
	Short:        "Print the description with the given source id",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, db, err := openService(rootCtx, service.Options{})
		if err != nil {
			return err
		}
		defer closeDB(db)

		d, err := svc.GetBySourceID(rootCtx, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), d)
	},
}
