package sheets

import (
	"fmt"
	"strings"
)

// quoteTitle renders a tab title for use in an A1 range.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func headerRange(title string) string {
	return quoteTitle(title) + "!1:1"
}

// dataRange covers every data row below the header.
func dataRange(title string) string {
	return quoteTitle(title) + "!A2:ZZ"
}

// rowRange addresses data row index (0-based), which is sheet row index+2.
func rowRange(title string, index int) string {
	return fmt.Sprintf("%s!A%d", quoteTitle(title), index+2)
}

func toInterfaces(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			out[i] = s
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}
