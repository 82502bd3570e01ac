package domain

import "time"

// UsersSheetTitle is the tab of the master spreadsheet holding the directory.
const UsersSheetTitle = "Users"

// Header is the fixed column layout of the directory tab.
var Header = []string{
	"UID", "Email", "Name", "Nickname", "Purpose", "MonthlyBudget",
	"Categories", "IsSetupComplete", "CreatedAt", "LastLogin", "Picture", "SpreadsheetId",
}

// Column positions within Header.
const (
	ColUID = iota
	ColEmail
	ColName
	ColNickname
	ColPurpose
	ColMonthlyBudget
	ColCategories
	ColIsSetupComplete
	ColCreatedAt
	ColLastLogin
	ColPicture
	ColCollectionHandle
)

// UserProfile is one row of the directory. Email is the identity and is
// unique across the directory.
type UserProfile struct {
	UID              string    `json:"uid"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Nickname         string    `json:"nickname"`
	Purpose          string    `json:"purpose"`
	MonthlyBudget    int64     `json:"monthlyBudget"`
	Categories       []string  `json:"categories"`
	IsSetupComplete  bool      `json:"isSetupComplete"`
	CreatedAt        time.Time `json:"createdAt"`
	LastLogin        time.Time `json:"lastLogin"`
	Picture          string    `json:"picture"`
	CollectionHandle string    `json:"spreadsheetId"`
}

// Provisioned reports whether a private collection handle is recorded.
func (p *UserProfile) Provisioned() bool {
	return p.CollectionHandle != ""
}

// ProfileUpdate carries field-level overwrites. Nil fields are left as is.
type ProfileUpdate struct {
	Name             *string
	Nickname         *string
	Purpose          *string
	MonthlyBudget    *int64
	Categories       []string
	IsSetupComplete  *bool
	Picture          *string
	CollectionHandle *string
}

// Apply overwrites the non-nil fields of u onto p.
func (u ProfileUpdate) Apply(p *UserProfile) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Nickname != nil {
		p.Nickname = *u.Nickname
	}
	if u.Purpose != nil {
		p.Purpose = *u.Purpose
	}
	if u.MonthlyBudget != nil {
		p.MonthlyBudget = *u.MonthlyBudget
	}
	if u.Categories != nil {
		p.Categories = append([]string(nil), u.Categories...)
	}
	if u.IsSetupComplete != nil {
		p.IsSetupComplete = *u.IsSetupComplete
	}
	if u.Picture != nil {
		p.Picture = *u.Picture
	}
	if u.CollectionHandle != nil {
		p.CollectionHandle = *u.CollectionHandle
	}
}

// Stats summarizes the directory for housekeeping logs.
type Stats struct {
	Users         int
	Provisioned   int
	SetupComplete int
}
