package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version     = "dev"
	versionJSON bool
)

// SetVersion sets the version reported by the version command, the
// --version flag and the healthz metadata
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print the version as a JSON object")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the descstore version",
	Args:  cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// No config or database needed to print the version
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionJSON {
			return printJSON(cmd.OutOrStdout(), map[string]string{"version": version})
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), version)
		return err
	},
}
