package commands

import (
	"bytes"
	"io"
	"regexp"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

func init() {
	rootCmd.AddCommand(docsCmd)
}

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Print markdown reference documentation for the descstore commands",
	Long: `Print markdown reference documentation for the descstore commands.

The output lists load, get, page, history and serve with their flags, and is
meant to be redirected into the project docs.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// No config or database needed
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeDocs(rootCmd, cmd.OutOrStdout())
	},
}

// Sections that repeat for every command
var repeatedSectionsRe = regexp.MustCompile(`(?s)### (SEE ALSO|Options inherited from parent commands).*`)

// writeDocs writes the docs for cmd and its subcommands, skipping the
// generated help commands
func writeDocs(cmd *cobra.Command, w io.Writer) error {
	switch cmd.Name() {
	case "completion", "help":
		return nil
	}
	var b bytes.Buffer
	if err := doc.GenMarkdown(cmd, &b); err != nil {
		return err
	}
	if _, err := w.Write(repeatedSectionsRe.ReplaceAll(b.Bytes(), nil)); err != nil {
		return err
	}
	for _, c := range cmd.Commands() {
		if err := writeDocs(c, w); err != nil {
			return err
		}
	}
	return nil
}
