package domain

// Palette maps a category to the colour used when the user has not picked one.
type Palette map[Category]string

// DefaultPalette returns the built-in category colours.
func DefaultPalette() Palette {
	return Palette{
		CategoryDefault:  "#3788d8",
		CategoryWork:     "#6c757d",
		CategoryPersonal: "#28a745",
		CategoryFamily:   "#ffc107",
		CategoryHoliday:  "#dc3545",
		CategoryOther:    "#6f42c1",
	}
}

// ColorFor returns the palette colour for c, falling back to the default
// category colour.
func (p Palette) ColorFor(c Category) string {
	if color, ok := p[c]; ok && color != "" {
		return color
	}
	if color, ok := p[CategoryDefault]; ok && color != "" {
		return color
	}
	return DefaultPalette()[CategoryDefault]
}

// Merge returns a copy of p with the non-empty entries of overrides applied.
func (p Palette) Merge(overrides map[Category]string) Palette {
	out := make(Palette, len(p)+len(overrides))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range overrides {
		if v == "" {
			continue
		}
		out[k] = v
	}
	return out
}
