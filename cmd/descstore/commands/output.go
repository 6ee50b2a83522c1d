package commands

import (
	"io"

	"github.com/goccy/go-json"
)

// printJSON writes v to w as indented JSON
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
