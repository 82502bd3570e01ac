package repository

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/kitapunya/expense-backend/internal/directory/domain"
)

// timeLayout matches JavaScript's toISOString, which earlier rows were
// written with.
const timeLayout = "2006-01-02T15:04:05.000Z"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func profileFromRow(row []string) *domain.UserProfile {
	p := &domain.UserProfile{
		UID:              cell(row, domain.ColUID),
		Email:            cell(row, domain.ColEmail),
		Name:             cell(row, domain.ColName),
		Nickname:         cell(row, domain.ColNickname),
		Purpose:          cell(row, domain.ColPurpose),
		IsSetupComplete:  cell(row, domain.ColIsSetupComplete) == "true",
		CreatedAt:        parseTime(cell(row, domain.ColCreatedAt)),
		LastLogin:        parseTime(cell(row, domain.ColLastLogin)),
		Picture:          cell(row, domain.ColPicture),
		CollectionHandle: strings.TrimSpace(cell(row, domain.ColCollectionHandle)),
		Categories:       []string{},
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(cell(row, domain.ColMonthlyBudget)), 64); err == nil && v > 0 {
		p.MonthlyBudget = int64(v)
	}
	if raw := strings.TrimSpace(cell(row, domain.ColCategories)); raw != "" {
		var cats []string
		if err := json.Unmarshal([]byte(raw), &cats); err == nil && cats != nil {
			p.Categories = cats
		}
	}
	return p
}

func profileToRow(p *domain.UserProfile) []string {
	cats := p.Categories
	if cats == nil {
		cats = []string{}
	}
	catsJSON, err := json.Marshal(cats)
	if err != nil {
		catsJSON = []byte("[]")
	}

	row := make([]string, len(domain.Header))
	row[domain.ColUID] = p.UID
	row[domain.ColEmail] = p.Email
	row[domain.ColName] = p.Name
	row[domain.ColNickname] = p.Nickname
	row[domain.ColPurpose] = p.Purpose
	row[domain.ColMonthlyBudget] = strconv.FormatInt(p.MonthlyBudget, 10)
	row[domain.ColCategories] = string(catsJSON)
	row[domain.ColIsSetupComplete] = strconv.FormatBool(p.IsSetupComplete)
	row[domain.ColCreatedAt] = formatTime(p.CreatedAt)
	row[domain.ColLastLogin] = formatTime(p.LastLogin)
	row[domain.ColPicture] = p.Picture
	row[domain.ColCollectionHandle] = p.CollectionHandle
	return row
}
