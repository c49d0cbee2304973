package controls

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Columns names the dataset columns the filler reads and writes
type Columns struct {
	ID          string `yaml:"id"`          // Stable identifier, optional
	Description string `yaml:"description"` // Full control text, required
	Result      string `yaml:"result"`      // Generated implementation text, appended when absent
}

// DefaultColumns matches the NIST SP 800-53r5 controls export
func DefaultColumns() Columns {
	return Columns{
		ID:          "Control Identifier",
		Description: "Combined",
		Result:      "Implementation",
	}
}

// Record is one control row
type Record struct {
	Index       int // 0-based position among data rows
	ID          string
	Description string
	Result      string
}

// Filled reports whether the row already carries a result. Filled rows are
// never re-queried
func (r Record) Filled() bool {
	return r.Result != ""
}

// Dataset is a whole control table kept in memory with every column in its
// original order. The source bytes of every record are kept so rows that are
// never written go back out byte for byte
type Dataset struct {
	header  []string
	rows    [][]string
	columns Columns

	rawHeader []byte
	raw       [][]byte // Source bytes of each row, line terminator included
	tail      []byte   // Anything after the last record
	dirty     []bool   // Rows changed by Set
	appended  bool     // Result column was absent from the source
	crlf      bool

	idIdx     int // -1 when the ID column is absent
	descIdx   int
	resultIdx int
}

// Load reads a dataset from a CSV file with a header row
func Load(path string, columns Columns) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	ds, err := Decode(f, columns)
	if err != nil {
		return nil, fmt.Errorf("csv: %s: %w", path, err)
	}
	return ds, nil
}

// Decode reads a dataset from CSV data with a header row
func Decode(r io.Reader, columns Columns) (*Dataset, error) {
	if columns.Description == "" || columns.Result == "" {
		return nil, fmt.Errorf("description and result column names are required")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))

	var records [][]string
	var spans [][]byte
	var offset int64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}

		end := reader.InputOffset()
		records = append(records, record)
		spans = append(spans, data[offset:end])
		offset = end
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("empty (no header row)")
	}

	header := slices.Clone(records[0])
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	ds := &Dataset{
		header:    header,
		rows:      records[1:],
		columns:   columns,
		idIdx:     -1,
		rawHeader: spans[0],
		raw:       spans[1:],
		tail:      data[offset:],
		dirty:     make([]bool, len(records)-1),
		crlf:      bytes.HasSuffix(spans[0], []byte("\r\n")),
	}

	if columns.ID != "" {
		ds.idIdx = slices.Index(header, columns.ID)
	}

	ds.descIdx = slices.Index(header, columns.Description)
	if ds.descIdx < 0 {
		return nil, fmt.Errorf("missing column %q", columns.Description)
	}

	ds.resultIdx = slices.Index(header, columns.Result)
	if ds.resultIdx < 0 {
		ds.header = append(ds.header, columns.Result)
		ds.resultIdx = len(ds.header) - 1
		ds.appended = true
		for i := range ds.rows {
			ds.rows[i] = append(ds.rows[i], "")
		}
	}

	return ds, nil
}

// Columns returns the column mapping in use
func (d *Dataset) Columns() Columns {
	return d.columns
}

// Header returns a copy of the header row
func (d *Dataset) Header() []string {
	return slices.Clone(d.header)
}

// Len returns the number of data rows
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Record returns the row at index i
func (d *Dataset) Record(i int) Record {
	row := d.rows[i]

	id := strconv.Itoa(i + 1)
	if d.idIdx >= 0 {
		id = row[d.idIdx]
	}

	return Record{
		Index:       i,
		ID:          id,
		Description: row[d.descIdx],
		Result:      row[d.resultIdx],
	}
}

// Records returns every row in original order
func (d *Dataset) Records() []Record {
	out := make([]Record, 0, len(d.rows))
	for i := range d.rows {
		out = append(out, d.Record(i))
	}
	return out
}

// Find returns the first row whose identifier equals id
func (d *Dataset) Find(id string) (Record, bool) {
	for i := range d.rows {
		if rec := d.Record(i); rec.ID == id {
			return rec, true
		}
	}
	return Record{}, false
}

// Pending returns the indices of rows without a result, in original order
func (d *Dataset) Pending() []int {
	var out []int
	for i, row := range d.rows {
		if row[d.resultIdx] == "" {
			out = append(out, i)
		}
	}
	return out
}

// Set stores the result for row i. A filled row is immutable for the rest of
// the run, so overwriting one is an error
func (d *Dataset) Set(i int, result string) error {
	if i < 0 || i >= len(d.rows) {
		return fmt.Errorf("row %d out of range [0, %d)", i, len(d.rows))
	}

	if result == "" {
		return fmt.Errorf("row %d: empty result", i)
	}

	if d.rows[i][d.resultIdx] != "" {
		return fmt.Errorf("row %d (%s) already has a result", i, d.Record(i).ID)
	}

	d.rows[i][d.resultIdx] = result
	d.dirty[i] = true
	return nil
}

// Encode writes the whole table, header first. Rows changed by Set are
// re-encoded; every other row is copied from the source unchanged
func (d *Dataset) Encode(w io.Writer) error {
	var buf bytes.Buffer

	if d.appended {
		name, err := d.encodeRecord([]string{d.columns.Result})
		if err != nil {
			return err
		}
		buf.Write(trimEOL(d.rawHeader))
		buf.WriteByte(',')
		buf.Write(name)
	} else {
		buf.Write(d.rawHeader)
	}

	for i, row := range d.rows {
		if !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
			buf.WriteString(d.eol())
		}

		switch {
		case d.dirty[i]:
			line, err := d.encodeRecord(row)
			if err != nil {
				return err
			}
			buf.Write(line)
		case d.appended:
			buf.Write(trimEOL(d.raw[i]))
			buf.WriteString("," + d.eol())
		default:
			buf.Write(d.raw[i])
		}
	}

	buf.Write(d.tail)

	_, err := w.Write(buf.Bytes())
	return err
}

// encodeRecord writes one record with the source's line terminator
func (d *Dataset) encodeRecord(fields []string) ([]byte, error) {
	var buf bytes.Buffer

	writer := csv.NewWriter(&buf)
	writer.UseCRLF = d.crlf
	if err := writer.Write(fields); err != nil {
		return nil, err
	}
	writer.Flush()

	return buf.Bytes(), writer.Error()
}

func (d *Dataset) eol() string {
	if d.crlf {
		return "\r\n"
	}
	return "\n"
}

func trimEOL(line []byte) []byte {
	if trimmed, ok := bytes.CutSuffix(line, []byte("\r\n")); ok {
		return trimmed
	}
	return bytes.TrimSuffix(line, []byte("\n"))
}
