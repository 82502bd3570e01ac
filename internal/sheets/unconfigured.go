package sheets

import "context"

// Unconfigured is used when no Google credentials are present. Every call
// fails with ErrNotConfigured.
type Unconfigured struct{}

func (Unconfigured) ListSheets(context.Context) ([]Sheet, error) { return nil, ErrNotConfigured }
func (Unconfigured) AddSheet(context.Context, string, []string) (Sheet, error) {
	return Sheet{}, ErrNotConfigured
}
func (Unconfigured) DeleteSheet(context.Context, int64) error            { return ErrNotConfigured }
func (Unconfigured) ReadHeader(context.Context, Sheet) ([]string, error) { return nil, ErrNotConfigured }
func (Unconfigured) WriteHeader(context.Context, Sheet, []string) error  { return ErrNotConfigured }
func (Unconfigured) ReadRows(context.Context, Sheet) ([][]string, error) { return nil, ErrNotConfigured }
func (Unconfigured) AppendRow(context.Context, Sheet, []string) error    { return ErrNotConfigured }
func (Unconfigured) UpdateRow(context.Context, Sheet, int, []string) error {
	return ErrNotConfigured
}
func (Unconfigured) DeleteRows(context.Context, Sheet, int, int) error { return ErrNotConfigured }
