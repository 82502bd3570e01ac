package domain

import "time"

// ExpenseRecord is one row of a private collection.
type ExpenseRecord struct {
	ID        string `json:"id"`
	Toko      string `json:"toko"`
	Kategori  string `json:"kategori"`
	Total     int64  `json:"total"`
	Tanggal   string `json:"tanggal"`
	Alamat    string `json:"alamat"`
	Catatan   string `json:"catatan"`
	Filename  string `json:"filename"`
	Timestamp string `json:"timestamp"`
	Base64    string `json:"base64"`
}

// HasPhoto reports whether an embedded image is stored with the record.
func (r ExpenseRecord) HasPhoto() bool {
	return r.Base64 != ""
}

// Date parses Tanggal. Unparseable dates yield the zero time.
func (r ExpenseRecord) Date() time.Time {
	t, err := time.Parse(DateLayout, r.Tanggal)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Listing is the result of reading a collection. Unavailable is set when the
// read failed, so an empty Records can be told apart from a failure.
type Listing struct {
	Records     []ExpenseRecord
	Unavailable bool
	Err         error
}

// Stats is the dashboard summary for the current month.
type Stats struct {
	MonthlyTotal   int64            `json:"monthlyTotal"`
	CategoryTotals map[string]int64 `json:"categoryTotals"`
	CurrentMonth   int              `json:"currentMonth"`
	CurrentYear    int              `json:"currentYear"`
}

// Summary aggregates all records of a user for export.
type Summary struct {
	TotalExpenses     int              `json:"totalExpenses"`
	TotalAmount       int64            `json:"totalAmount"`
	CategoryBreakdown map[string]int64 `json:"categoryBreakdown"`
}

func Summarize(records []ExpenseRecord) Summary {
	s := Summary{TotalExpenses: len(records), CategoryBreakdown: map[string]int64{}}
	for _, r := range records {
		s.TotalAmount += r.Total
		s.CategoryBreakdown[r.Kategori] += r.Total
	}
	return s
}

// MonthlyStats totals the records dated in the month of now.
func MonthlyStats(records []ExpenseRecord, now time.Time) Stats {
	st := Stats{
		CategoryTotals: map[string]int64{},
		CurrentMonth:   int(now.Month()),
		CurrentYear:    now.Year(),
	}
	for _, r := range records {
		d := r.Date()
		if d.IsZero() || d.Year() != now.Year() || d.Month() != now.Month() {
			continue
		}
		st.MonthlyTotal += r.Total
		st.CategoryTotals[r.Kategori] += r.Total
	}
	return st
}
