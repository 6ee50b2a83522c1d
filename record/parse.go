package record

import (
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Parser parses description files. The zero value is ready to use.
type Parser struct {
	// MaxSize limits the number of bytes read from the input. Zero means
	// no limit.
	MaxSize datasize.ByteSize
}

// Parse parses r with a default Parser
func Parse(r io.Reader) ([]Record, error) {
	return Parser{}.Parse(r)
}

// Parse reads all rows from r and returns the validated records.
// Parsing is all-or-nothing: on the first malformed row a *ParseError is
// returned and no records.
func (p Parser) Parse(r io.Reader) ([]Record, error) {
	if p.MaxSize > 0 {
		r = &limitReader{r: r, remaining: int64(p.MaxSize), max: p.MaxSize}
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // field counts are checked against the header below
	cr.ReuseRecord = true

	var (
		h       header
		records []Record
	)
	for row, err := range rows(cr) {
		if err != nil {
			return nil, rowError(row, err)
		}
		if row.num == 1 {
			if h, err = parseHeader(row.fields); err != nil {
				return nil, rowError(row, err)
			}
			continue
		}
		rec, err := h.record(row.fields)
		if err != nil {
			return nil, rowError(row, err)
		}
		records = append(records, rec)
	}
	if h == nil {
		return nil, &ParseError{Row: 1, Cause: fmt.Errorf("%w: no header row", ErrBadHeader)}
	}
	return records, nil
}

type rawRow struct {
	num    int // 1-based, header is 1
	line   int
	fields []string
}

// rows returns a single-pass iterator over the raw rows of cr. The fields
// slice is only valid until the next iteration. Iteration stops after the
// first error.
func rows(cr *csv.Reader) iter.Seq2[rawRow, error] {
	return func(yield func(rawRow, error) bool) {
		for num := 1; ; num++ {
			fields, err := cr.Read()
			if err == io.EOF {
				return
			}
			row := rawRow{num: num, fields: fields}
			if err != nil {
				var pe *csv.ParseError
				if errors.As(err, &pe) {
					row.line = pe.StartLine
				}
				yield(row, err)
				return
			}
			row.line, _ = cr.FieldPos(0)
			if !yield(row, nil) {
				return
			}
		}
	}
}

func rowError(row rawRow, err error) *ParseError {
	return &ParseError{Row: row.num, Line: row.line, Cause: err}
}

// header maps a column name to its position in a row
type header map[string]int

func parseHeader(fields []string) (header, error) {
	names := lo.Map(fields, func(name string, _ int) string {
		name = strings.TrimPrefix(name, "\ufeff")
		return strings.ToLower(strings.TrimSpace(name))
	})
	if dups := lo.FindDuplicates(names); len(dups) > 0 {
		return nil, fmt.Errorf("%w: duplicate columns: %s", ErrBadHeader, strings.Join(dups, ", "))
	}
	if unknown := lo.Without(names, Columns...); len(unknown) > 0 {
		return nil, fmt.Errorf("%w: unknown columns: %s", ErrBadHeader, strings.Join(unknown, ", "))
	}
	if missing := lo.Without(Columns, names...); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns: %s", ErrBadHeader, strings.Join(missing, ", "))
	}
	h := make(header, len(names))
	for i, name := range names {
		h[name] = i
	}
	return h, nil
}

func (h header) record(fields []string) (Record, error) {
	if len(fields) < len(h) {
		return Record{}, fmt.Errorf("%w: got %d of %d fields", ErrMissingField, len(fields), len(h))
	}
	if len(fields) > len(h) {
		return Record{}, fmt.Errorf("%w: got %d fields, expected %d", ErrExtraField, len(fields), len(h))
	}
	rec := Record{
		SourceID:      fields[h[ColSourceID]],
		Title:         fields[h[ColTitle]],
		Description:   fields[h[ColDescription]],
		PublishedAt:   fields[h[ColPublishedAt]],
		ActualStartAt: fields[h[ColActualStartAt]],
	}
	if strings.TrimSpace(rec.SourceID) == "" {
		return Record{}, ErrEmptySourceID
	}
	if err := checkTimestamp(ColPublishedAt, rec.PublishedAt); err != nil {
		return Record{}, err
	}
	if err := checkTimestamp(ColActualStartAt, rec.ActualStartAt); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// limitReader fails with ErrInputTooLarge once more than max bytes were read
type limitReader struct {
	r         io.Reader
	remaining int64
	max       datasize.ByteSize
}

func (l *limitReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, fmt.Errorf("%w: exceeds %s", ErrInputTooLarge, l.max.HumanReadable())
	}
	// Allow reading one byte past the limit to detect the overflow
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return 0, fmt.Errorf("%w: exceeds %s", ErrInputTooLarge, l.max.HumanReadable())
	}
	return n, err
}
