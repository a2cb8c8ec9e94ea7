package model

import "time"

// Settings is the single-row application configuration edited from the
// back office.
type Settings struct {
	ID         uint64     `db:"id" json:"id"`
	AppName    string     `db:"app_name" json:"app_name"`
	Currency   string     `db:"currency" json:"currency"`
	DateFormat string     `db:"date_format" json:"date_format"`
	LogoURL    string     `db:"logo_url" json:"logo_url"`
	Language   string     `db:"language" json:"language"`
	Theme      string     `db:"theme" json:"theme"`
	UpdatedAt  *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// DefaultSettings is used until a settings row has been loaded.
func DefaultSettings() Settings {
	return Settings{
		AppName:    "IP Manager",
		Currency:   "MAD",
		DateFormat: "MM/DD/YYYY",
		Language:   "en",
		Theme:      "light",
	}
}
