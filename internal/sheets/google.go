package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/kitapunya/expense-backend/internal/logging"
	"github.com/kitapunya/expense-backend/internal/metrics"
)

// Operation names, used as metric labels and as failure-injection keys by
// Memory.
const (
	OpList        = "list_sheets"
	OpAdd         = "add_sheet"
	OpDelete      = "delete_sheet"
	OpReadHeader  = "read_header"
	OpWriteHeader = "write_header"
	OpReadRows    = "read_rows"
	OpAppend      = "append_row"
	OpUpdate      = "update_row"
	OpDeleteRows  = "delete_rows"
)

const valueInputRaw = "RAW"

// Google implements Tables on top of one spreadsheet of the Sheets v4 API.
type Google struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	limiter       *rate.Limiter
}

// NewGoogle wraps an authenticated Sheets service. A nil limiter disables
// client-side rate limiting.
func NewGoogle(svc *sheetsapi.Service, spreadsheetID string, limiter *rate.Limiter) *Google {
	return &Google{svc: svc, spreadsheetID: spreadsheetID, limiter: limiter}
}

func (g *Google) SpreadsheetID() string {
	return g.spreadsheetID
}

// call waits for the limiter, runs fn and records the outcome.
func (g *Google) call(ctx context.Context, op string, fn func() error) error {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	started := time.Now()
	err := wrapRemote(op, fn())
	metrics.ObserveSheetsCall(op, started, err)
	return err
}

func (g *Google) ListSheets(ctx context.Context) ([]Sheet, error) {
	var out []Sheet
	err := g.call(ctx, OpList, func() error {
		resp, err := g.svc.Spreadsheets.Get(g.spreadsheetID).
			Fields("sheets.properties(sheetId,title)").
			Context(ctx).Do()
		if err != nil {
			return err
		}
		for _, s := range resp.Sheets {
			if s.Properties == nil {
				continue
			}
			out = append(out, Sheet{ID: s.Properties.SheetId, Title: s.Properties.Title})
		}
		return nil
	})
	return out, err
}

// AddSheet creates a tab and writes its header row. If the header cannot be
// written the new tab is removed again so no headerless table is left behind;
// a failed removal is logged and joined to the returned error.
func (g *Google) AddSheet(ctx context.Context, title string, header []string) (Sheet, error) {
	var created Sheet
	err := g.call(ctx, OpAdd, func() error {
		req := &sheetsapi.BatchUpdateSpreadsheetRequest{
			Requests: []*sheetsapi.Request{{
				AddSheet: &sheetsapi.AddSheetRequest{
					Properties: &sheetsapi.SheetProperties{Title: title},
				},
			}},
		}
		resp, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do()
		if err != nil {
			return err
		}
		if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
			created = Sheet{Title: title}
			return nil
		}
		props := resp.Replies[0].AddSheet.Properties
		created = Sheet{ID: props.SheetId, Title: props.Title}
		return nil
	})
	if err != nil {
		return Sheet{}, err
	}

	if err := g.WriteHeader(ctx, created, header); err != nil {
		if derr := g.DeleteSheet(ctx, created.ID); derr != nil {
			logging.New(ctx).Warnf(OpAdd, "rollback of sheet_id=%d title=%s failed: %v", created.ID, created.Title, derr)
			return Sheet{}, errors.Join(err, fmt.Errorf("remove headerless sheet %d: %w", created.ID, derr))
		}
		return Sheet{}, err
	}
	return created, nil
}

func (g *Google) DeleteSheet(ctx context.Context, id int64) error {
	return g.call(ctx, OpDelete, func() error {
		req := &sheetsapi.BatchUpdateSpreadsheetRequest{
			Requests: []*sheetsapi.Request{{
				DeleteSheet: &sheetsapi.DeleteSheetRequest{SheetId: id},
			}},
		}
		_, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do()
		return err
	})
}

func (g *Google) ReadHeader(ctx context.Context, s Sheet) ([]string, error) {
	var header []string
	err := g.call(ctx, OpReadHeader, func() error {
		resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, headerRange(s.Title)).Context(ctx).Do()
		if err != nil {
			return err
		}
		if len(resp.Values) > 0 {
			header = toStrings(resp.Values[0])
		}
		return nil
	})
	return header, err
}

func (g *Google) WriteHeader(ctx context.Context, s Sheet, header []string) error {
	return g.call(ctx, OpWriteHeader, func() error {
		vr := &sheetsapi.ValueRange{Values: [][]interface{}{toInterfaces(header)}}
		_, err := g.svc.Spreadsheets.Values.Update(g.spreadsheetID, quoteTitle(s.Title)+"!A1", vr).
			ValueInputOption(valueInputRaw).
			Context(ctx).Do()
		return err
	})
}

func (g *Google) ReadRows(ctx context.Context, s Sheet) ([][]string, error) {
	var rows [][]string
	err := g.call(ctx, OpReadRows, func() error {
		resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, dataRange(s.Title)).Context(ctx).Do()
		if err != nil {
			return err
		}
		rows = make([][]string, 0, len(resp.Values))
		for _, r := range resp.Values {
			rows = append(rows, toStrings(r))
		}
		return nil
	})
	return rows, err
}

func (g *Google) AppendRow(ctx context.Context, s Sheet, row []string) error {
	return g.call(ctx, OpAppend, func() error {
		vr := &sheetsapi.ValueRange{Values: [][]interface{}{toInterfaces(row)}}
		_, err := g.svc.Spreadsheets.Values.Append(g.spreadsheetID, quoteTitle(s.Title)+"!A1", vr).
			ValueInputOption(valueInputRaw).
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		return err
	})
}

func (g *Google) UpdateRow(ctx context.Context, s Sheet, index int, row []string) error {
	return g.call(ctx, OpUpdate, func() error {
		vr := &sheetsapi.ValueRange{Values: [][]interface{}{toInterfaces(row)}}
		_, err := g.svc.Spreadsheets.Values.Update(g.spreadsheetID, rowRange(s.Title, index), vr).
			ValueInputOption(valueInputRaw).
			Context(ctx).Do()
		return err
	})
}

// DeleteRows removes data rows [start, end).
func (g *Google) DeleteRows(ctx context.Context, s Sheet, start, end int) error {
	if end <= start {
		return nil
	}
	return g.call(ctx, OpDeleteRows, func() error {
		req := &sheetsapi.BatchUpdateSpreadsheetRequest{
			Requests: []*sheetsapi.Request{{
				DeleteDimension: &sheetsapi.DeleteDimensionRequest{
					Range: &sheetsapi.DimensionRange{
						SheetId:    s.ID,
						Dimension:  "ROWS",
						StartIndex: int64(start + 1),
						EndIndex:   int64(end + 1),
					},
				},
			}},
		}
		_, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do()
		return err
	})
}
