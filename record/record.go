// Package record implements the parser that turns delimited description files
// into validated records.
package record

// Column names as they appear in the header row
const (
	ColSourceID      = "source_id"
	ColTitle         = "title"
	ColDescription   = "description"
	ColPublishedAt   = "published_at"
	ColActualStartAt = "actual_start_at"
)

// Columns lists all columns in their canonical order
var Columns = []string{
	ColSourceID,
	ColTitle,
	ColDescription,
	ColPublishedAt,
	ColActualStartAt,
}

// Record is a single validated input row.
// The timestamps have been checked for syntax, but are kept as the original
// text.
type Record struct {
	SourceID      string `json:"source_id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	PublishedAt   string `json:"published_at"`
	ActualStartAt string `json:"actual_start_at"`
}

// Values returns the field values in the order of Columns
func (r Record) Values() []string {
	return []string{r.SourceID, r.Title, r.Description, r.PublishedAt, r.ActualStartAt}
}
