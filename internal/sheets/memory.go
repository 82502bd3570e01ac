package sheets

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

type memTable struct {
	title  string
	header []string
	rows   [][]string
}

// Memory is an in-process Tables used by tests and local runs without
// credentials. Failures can be injected per operation with FailNext.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	order  []int64
	tables map[int64]*memTable
	fail   map[string][]error
	calls  map[string]int
}

func NewMemory() *Memory {
	return &Memory{
		nextID: 1000,
		tables: make(map[int64]*memTable),
		fail:   make(map[string][]error),
		calls:  make(map[string]int),
	}
}

// FailNext makes the next call of op return err. Calls queue up in order.
func (m *Memory) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[op] = append(m.fail[op], err)
}

// Calls returns how many times op was invoked.
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Seed creates a tab directly, bypassing failure injection and counters.
func (m *Memory) Seed(title string, header []string, rows ...[]string) Sheet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addLocked(title, header, rows)
}

// RenameSheet changes a tab title the way a user editing the spreadsheet would.
func (m *Memory) RenameSheet(id int64, title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tables[id]; ok {
		t.title = title
	}
}

// Snapshot returns a copy of the header and rows of a tab.
func (m *Memory) Snapshot(id int64) (header []string, rows [][]string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[id]
	if !ok {
		return nil, nil, false
	}
	return cloneRow(t.header), cloneRows(t.rows), true
}

// enter counts the call and returns with m.mu held, unless it hands back an
// injected failure.
func (m *Memory) enter(op string) error {
	m.mu.Lock()
	m.calls[op]++
	if q := m.fail[op]; len(q) > 0 {
		err := q[0]
		m.fail[op] = q[1:]
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Memory) addLocked(title string, header []string, rows [][]string) Sheet {
	m.nextID++
	id := m.nextID
	m.tables[id] = &memTable{title: title, header: cloneRow(header), rows: cloneRows(rows)}
	m.order = append(m.order, id)
	return Sheet{ID: id, Title: title}
}

func (m *Memory) lookupLocked(op string, s Sheet) (*memTable, error) {
	t, ok := m.tables[s.ID]
	if !ok {
		return nil, &RemoteError{Op: op, Code: http.StatusNotFound, Message: fmt.Sprintf("no sheet with id %d", s.ID)}
	}
	return t, nil
}

func (m *Memory) ListSheets(ctx context.Context) ([]Sheet, error) {
	if err := m.enter(OpList); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	out := make([]Sheet, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, Sheet{ID: id, Title: m.tables[id].title})
	}
	return out, nil
}

func (m *Memory) AddSheet(ctx context.Context, title string, header []string) (Sheet, error) {
	if err := m.enter(OpAdd); err != nil {
		return Sheet{}, err
	}
	defer m.mu.Unlock()
	for _, t := range m.tables {
		if t.title == title {
			return Sheet{}, &RemoteError{
				Op:      OpAdd,
				Code:    http.StatusBadRequest,
				Message: fmt.Sprintf("A sheet with the name %q already exists.", title),
			}
		}
	}
	return m.addLocked(title, header, nil), nil
}

func (m *Memory) DeleteSheet(ctx context.Context, id int64) error {
	if err := m.enter(OpDelete); err != nil {
		return err
	}
	defer m.mu.Unlock()
	if _, err := m.lookupLocked(OpDelete, Sheet{ID: id}); err != nil {
		return err
	}
	delete(m.tables, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) ReadHeader(ctx context.Context, s Sheet) ([]string, error) {
	if err := m.enter(OpReadHeader); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	t, err := m.lookupLocked(OpReadHeader, s)
	if err != nil {
		return nil, err
	}
	return cloneRow(t.header), nil
}

func (m *Memory) WriteHeader(ctx context.Context, s Sheet, header []string) error {
	if err := m.enter(OpWriteHeader); err != nil {
		return err
	}
	defer m.mu.Unlock()
	t, err := m.lookupLocked(OpWriteHeader, s)
	if err != nil {
		return err
	}
	t.header = cloneRow(header)
	return nil
}

func (m *Memory) ReadRows(ctx context.Context, s Sheet) ([][]string, error) {
	if err := m.enter(OpReadRows); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	t, err := m.lookupLocked(OpReadRows, s)
	if err != nil {
		return nil, err
	}
	return cloneRows(t.rows), nil
}

func (m *Memory) AppendRow(ctx context.Context, s Sheet, row []string) error {
	if err := m.enter(OpAppend); err != nil {
		return err
	}
	defer m.mu.Unlock()
	t, err := m.lookupLocked(OpAppend, s)
	if err != nil {
		return err
	}
	t.rows = append(t.rows, cloneRow(row))
	return nil
}

func (m *Memory) UpdateRow(ctx context.Context, s Sheet, index int, row []string) error {
	if err := m.enter(OpUpdate); err != nil {
		return err
	}
	defer m.mu.Unlock()
	t, err := m.lookupLocked(OpUpdate, s)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(t.rows) {
		return &RemoteError{Op: OpUpdate, Code: http.StatusBadRequest, Message: fmt.Sprintf("row %d out of range", index)}
	}
	t.rows[index] = cloneRow(row)
	return nil
}

func (m *Memory) DeleteRows(ctx context.Context, s Sheet, start, end int) error {
	if err := m.enter(OpDeleteRows); err != nil {
		return err
	}
	defer m.mu.Unlock()
	t, err := m.lookupLocked(OpDeleteRows, s)
	if err != nil {
		return err
	}
	if start < 0 {
		start = 0
	}
	if end > len(t.rows) {
		end = len(t.rows)
	}
	if end <= start {
		return nil
	}
	t.rows = append(t.rows[:start], t.rows[end:]...)
	return nil
}

func cloneRow(r []string) []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r...)
}

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, cloneRow(r))
	}
	return out
}

// DropSheet removes a tab out of band, bypassing failure injection and
// counters.
func (m *Memory) DropSheet(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}
