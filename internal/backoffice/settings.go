package backoffice

import (
	"context"

	"github.com/iliyamo/ip-manager/internal/model"
)

// SettingsPatch lists the settings an update may change.
type SettingsPatch struct {
	AppName    *string `json:"app_name"`
	Currency   *string `json:"currency"`
	DateFormat *string `json:"date_format"`
	LogoURL    *string `json:"logo_url"`
	Language   *string `json:"language"`
	Theme      *string `json:"theme"`
}

func (p SettingsPatch) apply(s *model.Settings) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&s.AppName, p.AppName)
	set(&s.Currency, p.Currency)
	set(&s.DateFormat, p.DateFormat)
	set(&s.LogoURL, p.LogoURL)
	set(&s.Language, p.Language)
	set(&s.Theme, p.Theme)
}

// UpdateSettings merges patch into the current settings and saves them.
func (c *Coordinator) UpdateSettings(ctx context.Context, actor string, patch SettingsPatch) (model.Settings, error) {
	s, err := c.d.Settings.GetSettings(ctx)
	if err != nil {
		return model.Settings{}, err
	}
	patch.apply(&s)
	now := c.now().UTC()
	s.UpdatedAt = &now
	if err := c.d.Settings.SaveSettings(ctx, s); err != nil {
		return model.Settings{}, err
	}
	c.mu.Lock()
	c.snap.Settings = s
	c.mu.Unlock()
	c.record(ctx, "Update Settings", "Settings updated", actor)
	return s, nil
}
