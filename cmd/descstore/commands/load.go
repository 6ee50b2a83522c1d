package commands

import (
	"os"

	"github.com/PowerDNS/simpleblob"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/PowerDNS/descstore/service"
	"github.com/PowerDNS/descstore/store"
)

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().Bool("from-storage", false,
		"Load the named file from the configured storage backend instead of the local filesystem")
}

var loadCmd = &cobra.Command{
	Use:   "load FILE",
	Short: "Replace all descriptions with the contents of a CSV file ('-' for stdin)",
	Long: `Replace all descriptions with the contents of a CSV file.

The file must start with a header row naming the columns source_id, title,
description, published_at and actual_start_at in any order. Gzipped files are
detected automatically. The load is all-or-nothing: if any row is invalid, the
table is left untouched.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := rootCtx
		name := args[0]

		fromStorage, err := cmd.Flags().GetBool("from-storage")
		if err != nil {
			return err
		}

		svc, db, err := openService(ctx, service.Options{})
		if err != nil {
			return err
		}
		defer closeDB(db)

		var res store.LoadResult
		switch {
		case fromStorage:
			st, err := simpleblob.GetBackend(ctx, conf.Storage.Type, conf.Storage.Options)
			if err != nil {
				return errors.Wrap(err, "storage backend")
			}
			logrus.WithField("storage_type", conf.Storage.Type).Debug("Storage backend initialised")
			res, err = svc.LoadFromBlob(ctx, st, name)
			if err != nil {
				return err
			}
		default:
			r := cmd.InOrStdin()
			if name != "-" {
				f, err := os.Open(name)
				if err != nil {
					return err
				}
				defer func() {
					_ = f.Close()
				}()
				r = f
			} else {
				name = "stdin"
			}
			res, err = svc.LoadFromStream(ctx, name, r)
			if err != nil {
				return err
			}
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}
