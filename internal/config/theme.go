package config

// Theme defines the colors used when rendering a board in the terminal
type Theme struct {
	Accent       string `yaml:"accent"`
	ColumnBorder string `yaml:"column_border"`
	Title        string `yaml:"title"`
	Subtle       string `yaml:"subtle"`
	Normal       string `yaml:"normal"`
	ErrorFg      string `yaml:"error_fg"`
}

// DefaultTheme returns the default (purple) theme
func DefaultTheme() Theme {
	return Theme{
		Accent:       "#7D56F4",
		ColumnBorder: "#626262",
		Title:        "#FAFAFA",
		Subtle:       "#8A8A8A",
		Normal:       "#DDDDDD",
		ErrorFg:      "#EF4444",
	}
}

// ApplyDefaults fills in missing theme colors from the default theme
func (t *Theme) ApplyDefaults() {
	d := DefaultTheme()
	if t.Accent == "" {
		t.Accent = d.Accent
	}
	if t.ColumnBorder == "" {
		t.ColumnBorder = d.ColumnBorder
	}
	if t.Title == "" {
		t.Title = d.Title
	}
	if t.Subtle == "" {
		t.Subtle = d.Subtle
	}
	if t.Normal == "" {
		t.Normal = d.Normal
	}
	if t.ErrorFg == "" {
		t.ErrorFg = d.ErrorFg
	}
}
