package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// API is the subset of the Sheets REST surface the mirror needs.
type API interface {
	SheetTitles(ctx context.Context) ([]string, error)
	AddSheet(ctx context.Context, title string, rows, cols int64) error
	ReadRange(ctx context.Context, a1Range string) ([][]string, error)
	UpdateRow(ctx context.Context, a1Range string, row []any) error
	AppendRow(ctx context.Context, a1Range string, row []any) error
}

type googleAPI struct {
	srv           *gsheets.Service
	spreadsheetID string
}

func NewGoogleAPI(ctx context.Context, spreadsheetID, credentialsPath string) (API, error) {
	srv, err := gsheets.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	return &googleAPI{
		srv:           srv,
		spreadsheetID: spreadsheetID,
	}, nil
}

func (g *googleAPI) SheetTitles(ctx context.Context) ([]string, error) {
	spreadsheet, err := g.srv.Spreadsheets.Get(g.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	titles := make([]string, 0, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil {
			titles = append(titles, sheet.Properties.Title)
		}
	}
	return titles, nil
}

func (g *googleAPI) AddSheet(ctx context.Context, title string, rows, cols int64) error {
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{
					Title: title,
					GridProperties: &gsheets.GridProperties{
						RowCount:    rows,
						ColumnCount: cols,
					},
				},
			},
		}},
	}

	_, err := g.srv.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to add sheet %q: %w", title, err)
	}
	return nil
}

func (g *googleAPI) ReadRange(ctx context.Context, a1Range string) ([][]string, error) {
	resp, err := g.srv.Spreadsheets.Values.Get(g.spreadsheetID, a1Range).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", a1Range, err)
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = fmt.Sprint(cell)
		}
	}
	return rows, nil
}

func (g *googleAPI) UpdateRow(ctx context.Context, a1Range string, row []any) error {
	_, err := g.srv.Spreadsheets.Values.
		Update(g.spreadsheetID, a1Range, &gsheets.ValueRange{Values: [][]any{row}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", a1Range, err)
	}
	return nil
}

func (g *googleAPI) AppendRow(ctx context.Context, a1Range string, row []any) error {
	_, err := g.srv.Spreadsheets.Values.
		Append(g.spreadsheetID, a1Range, &gsheets.ValueRange{Values: [][]any{row}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", a1Range, err)
	}
	return nil
}
