package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// fakeAPI keeps a single worksheet in memory. Ranges are interpreted only as
// far as the mirror uses them.
type fakeAPI struct {
	mu      sync.Mutex
	titles  []string
	rows    [][]string
	appends int
	updates int
	failN   int
}

func (f *fakeAPI) SheetTitles(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.maybeFail(); err != nil {
		return nil, err
	}
	return append([]string(nil), f.titles...), nil
}

func (f *fakeAPI) AddSheet(ctx context.Context, title string, rows, cols int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles = append(f.titles, title)
	return nil
}

func (f *fakeAPI) ReadRange(ctx context.Context, a1Range string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.maybeFail(); err != nil {
		return nil, err
	}
	out := make([][]string, len(f.rows))
	for i, row := range f.rows {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

func (f *fakeAPI) UpdateRow(ctx context.Context, a1Range string, row []any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cells := a1Range[strings.Index(a1Range, "!")+1:]
	var n int
	if _, err := fmt.Sscanf(cells, "A%d:", &n); err != nil {
		return err
	}
	f.rows[n-1] = stringify(row)
	f.updates++
	return nil
}

func (f *fakeAPI) AppendRow(ctx context.Context, a1Range string, row []any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, stringify(row))
	f.appends++
	return nil
}

func (f *fakeAPI) maybeFail() error {
	if f.failN > 0 {
		f.failN--
		return fmt.Errorf("googleapi: Error 503: backend unavailable")
	}
	return nil
}

func stringify(row []any) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = fmt.Sprint(cell)
	}
	return out
}
