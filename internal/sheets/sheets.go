// Package sheets reads and writes the lead tracker spreadsheet through the
// Google Sheets v4 API.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sheets "google.golang.org/api/sheets/v4"

	"github.com/daviddao/sheetmail/internal/config"
	"github.com/daviddao/sheetmail/internal/types"
)

var (
	// ErrMissingColumn is returned by Load when a required header is absent.
	ErrMissingColumn = errors.New("missing column")

	// ErrReadOnly is returned by UpdateRow on a read-only tracker.
	ErrReadOnly = errors.New("tracker is read-only")
)

// Options locate the tracker inside a spreadsheet.
type Options struct {
	SpreadsheetID   string
	Tab             string
	Columns         config.Columns
	TimestampLayout string
	Location        *time.Location

	// ReadOnly trackers never write to the spreadsheet. Missing tracking
	// columns are mapped past the header in memory only and UpdateRow fails.
	ReadOnly bool
}

// Tracker is a single worksheet of lead rows. It is not safe for
// concurrent use; one pass at a time owns it.
type Tracker struct {
	svc  *sheets.Service
	opts Options

	sheetID     int64
	columnCount int64
	resolved    bool

	// header index of each logical column, filled in by Load
	cols map[string]int
}

// New returns a tracker over svc.
func New(svc *sheets.Service, opts Options) *Tracker {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.TimestampLayout == "" {
		opts.TimestampLayout = config.DefaultTimestampLayout
	}
	return &Tracker{svc: svc, opts: opts}
}

// Load reads every data row in sheet order with its background color.
// The Status and timestamp columns are appended to the header row when
// missing, unless the tracker is read-only; any other missing column fails
// the load.
func (t *Tracker) Load(ctx context.Context) ([]types.Contact, error) {
	if err := t.resolve(ctx); err != nil {
		return nil, err
	}

	vr, err := t.svc.Spreadsheets.Values.Get(t.opts.SpreadsheetID, quoteTab(t.opts.Tab)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", t.opts.Tab, err)
	}
	rows := stringRows(vr.Values)
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no header row", ErrMissingColumn, t.opts.Tab)
	}

	header := rows[0]
	if err := t.mapColumns(ctx, header); err != nil {
		return nil, err
	}

	data := rows[1:]
	if len(data) == 0 {
		return nil, nil
	}

	colors, err := t.rowColors(ctx, len(rows))
	if err != nil {
		return nil, err
	}

	contacts := make([]types.Contact, 0, len(data))
	for i, row := range data {
		rowNum := i + 2
		rawStatus := t.cell(row, t.opts.Columns.Status)
		rawTS := t.cell(row, t.opts.Columns.Timestamp)
		contacts = append(contacts, types.Contact{
			Row:             rowNum,
			Name:            t.cell(row, t.opts.Columns.Name),
			Email:           t.cell(row, t.opts.Columns.Email),
			Show:            t.cell(row, t.opts.Columns.Show),
			Response:        types.ParseResponse(t.cell(row, t.opts.Columns.Response)),
			Status:          types.ParseStatus(rawStatus),
			RawStatus:       rawStatus,
			LastFollowup:    t.parseTimestamp(rawTS),
			RawLastFollowup: rawTS,
			Color:           colors[rowNum],
		})
	}
	return contacts, nil
}

// UpdateRow writes the status/timestamp cells in one values batch and the
// background color in one formatting request.
func (t *Tracker) UpdateRow(ctx context.Context, u types.RowUpdate) error {
	if t.opts.ReadOnly {
		return fmt.Errorf("update row %d: %w", u.Row, ErrReadOnly)
	}
	if t.cols == nil {
		return errors.New("update row: tracker not loaded")
	}
	if u.Row < 2 {
		return fmt.Errorf("update row: row %d is not a data row", u.Row)
	}

	var data []*sheets.ValueRange
	if u.Status != nil {
		data = append(data, t.cellValue(t.opts.Columns.Status, u.Row, u.Status.String()))
	}
	if u.Timestamp != nil {
		data = append(data, t.cellValue(t.opts.Columns.Timestamp, u.Row, t.FormatTimestamp(*u.Timestamp)))
	}
	if len(data) > 0 {
		_, err := t.svc.Spreadsheets.Values.BatchUpdate(t.opts.SpreadsheetID, &sheets.BatchUpdateValuesRequest{
			ValueInputOption: "RAW",
			Data:             data,
		}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("write row %d: %w", u.Row, err)
		}
	}

	if u.Color != nil {
		if err := t.setColor(ctx, u.Row, *u.Color); err != nil {
			return err
		}
	}
	return nil
}

// FormatTimestamp renders a follow-up time the way it is stored.
func (t *Tracker) FormatTimestamp(ts time.Time) string {
	return ts.In(t.opts.Location).Format(t.opts.TimestampLayout)
}

// parseTimestamp returns the zero time for blank or unparseable cells.
func (t *Tracker) parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if ts, err := time.ParseInLocation(t.opts.TimestampLayout, raw, t.opts.Location); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts
	}
	return time.Time{}
}

// resolve looks up the numeric sheet ID and grid width of the tab once.
func (t *Tracker) resolve(ctx context.Context) error {
	if t.resolved {
		return nil
	}
	ss, err := t.svc.Spreadsheets.Get(t.opts.SpreadsheetID).
		Fields("sheets.properties(sheetId,title,gridProperties(columnCount))").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet %s: %w", t.opts.SpreadsheetID, err)
	}
	for _, s := range ss.Sheets {
		if s.Properties == nil || s.Properties.Title != t.opts.Tab {
			continue
		}
		t.sheetID = s.Properties.SheetId
		if s.Properties.GridProperties != nil {
			t.columnCount = s.Properties.GridProperties.ColumnCount
		}
		t.resolved = true
		return nil
	}
	return fmt.Errorf("spreadsheet %s has no tab %q", t.opts.SpreadsheetID, t.opts.Tab)
}

// mapColumns indexes the header and creates the tracking columns.
func (t *Tracker) mapColumns(ctx context.Context, header []string) error {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := cols[h]; !dup && h != "" {
			cols[h] = i
		}
	}

	var missing []string
	for _, name := range []string{t.opts.Columns.Name, t.opts.Columns.Email, t.opts.Columns.Show, t.opts.Columns.Response} {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	next := len(header)
	var created []string
	for _, name := range []string{t.opts.Columns.Status, t.opts.Columns.Timestamp} {
		if _, ok := cols[name]; !ok {
			cols[name] = next
			created = append(created, name)
			next++
		}
	}
	if len(created) > 0 && !t.opts.ReadOnly {
		if err := t.createColumns(ctx, len(header), created); err != nil {
			return err
		}
	}

	t.cols = cols
	return nil
}

// createColumns widens the grid if needed and writes the new header cells
// starting at column index first.
func (t *Tracker) createColumns(ctx context.Context, first int, names []string) error {
	need := int64(first + len(names))
	if t.columnCount > 0 && need > t.columnCount {
		_, err := t.svc.Spreadsheets.BatchUpdate(t.opts.SpreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AppendDimension: &sheets.AppendDimensionRequest{
					SheetId:         t.sheetID,
					Dimension:       "COLUMNS",
					Length:          need - t.columnCount,
					ForceSendFields: []string{"SheetId"},
				},
			}},
		}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("widen %s: %w", t.opts.Tab, err)
		}
		t.columnCount = need
	}

	row := make([]any, len(names))
	for i, n := range names {
		row[i] = n
	}
	rng := fmt.Sprintf("%s!%s1:%s1", quoteTab(t.opts.Tab), ColumnLetter(first), ColumnLetter(first+len(names)-1))
	_, err := t.svc.Spreadsheets.Values.Update(t.opts.SpreadsheetID, rng, &sheets.ValueRange{
		Values: [][]any{row},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("create columns %s: %w", strings.Join(names, ", "), err)
	}
	return nil
}

// rowColors fetches the background of column A for rows 2..lastRow, keyed
// by 1-based row number. Rows without a fill are absent from the map.
func (t *Tracker) rowColors(ctx context.Context, lastRow int) (map[int]types.Color, error) {
	rng := fmt.Sprintf("%s!A2:A%d", quoteTab(t.opts.Tab), lastRow)
	ss, err := t.svc.Spreadsheets.Get(t.opts.SpreadsheetID).
		Ranges(rng).
		Fields("sheets(data(startRow,rowData(values(userEnteredFormat(backgroundColor)))))").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read colors: %w", err)
	}

	colors := make(map[int]types.Color)
	for _, s := range ss.Sheets {
		for _, grid := range s.Data {
			for i, rd := range grid.RowData {
				if rd == nil || len(rd.Values) == 0 {
					continue
				}
				cd := rd.Values[0]
				if cd == nil || cd.UserEnteredFormat == nil || cd.UserEnteredFormat.BackgroundColor == nil {
					continue
				}
				bg := cd.UserEnteredFormat.BackgroundColor
				colors[int(grid.StartRow)+i+1] = types.Color{Red: bg.Red, Green: bg.Green, Blue: bg.Blue}
			}
		}
	}
	return colors, nil
}

// setColor paints the whole row. A zero color clears the fill.
func (t *Tracker) setColor(ctx context.Context, row int, c types.Color) error {
	cell := &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{}}
	if !c.IsZero() {
		cell.UserEnteredFormat.BackgroundColor = &sheets.Color{
			Red:             c.Red,
			Green:           c.Green,
			Blue:            c.Blue,
			ForceSendFields: []string{"Red", "Green", "Blue"},
		}
	}
	_, err := t.svc.Spreadsheets.BatchUpdate(t.opts.SpreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:         t.sheetID,
					StartRowIndex:   int64(row - 1),
					EndRowIndex:     int64(row),
					ForceSendFields: []string{"SheetId", "StartRowIndex"},
				},
				Cell:   cell,
				Fields: "userEnteredFormat.backgroundColor",
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("color row %d: %w", row, err)
	}
	return nil
}

func (t *Tracker) cell(row []string, column string) string {
	i, ok := t.cols[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *Tracker) cellValue(column string, row int, value string) *sheets.ValueRange {
	return &sheets.ValueRange{
		Range:  fmt.Sprintf("%s!%s%d", quoteTab(t.opts.Tab), ColumnLetter(t.cols[column]), row),
		Values: [][]any{{value}},
	}
}

// ColumnLetter converts a 0-based column index to A1 notation.
func ColumnLetter(i int) string {
	var b []byte
	for i >= 0 {
		b = append([]byte{byte('A' + i%26)}, b...)
		i = i/26 - 1
	}
	return string(b)
}

func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

func stringRows(values [][]any) [][]string {
	rows := make([][]string, len(values))
	for i, vals := range values {
		row := make([]string, len(vals))
		for j, v := range vals {
			if v != nil {
				row[j] = strings.TrimSpace(fmt.Sprint(v))
			}
		}
		rows[i] = row
	}
	return rows
}
