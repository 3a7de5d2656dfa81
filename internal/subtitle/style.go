package subtitle

import (
	"fmt"
	"strconv"
	"strings"

	"subburn/internal/pkg/errors"
)

// Alignment is an ASS numpad position code.
type Alignment int

const (
	AlignBottomLeft   Alignment = 1
	AlignBottomCenter Alignment = 2
	AlignBottomRight  Alignment = 3
	AlignMiddleLeft   Alignment = 4
	AlignMiddleCenter Alignment = 5
	AlignMiddleRight  Alignment = 6
	AlignTopLeft      Alignment = 7
	AlignTopCenter    Alignment = 8
	AlignTopRight     Alignment = 9
)

var alignmentNames = map[string]Alignment{
	"bottom-left":   AlignBottomLeft,
	"bottom-center": AlignBottomCenter,
	"bottom-right":  AlignBottomRight,
	"middle-left":   AlignMiddleLeft,
	"middle-center": AlignMiddleCenter,
	"middle-right":  AlignMiddleRight,
	"top-left":      AlignTopLeft,
	"top-center":    AlignTopCenter,
	"top-right":     AlignTopRight,
}

// Valid reports whether a is one of the nine numpad positions.
func (a Alignment) Valid() bool {
	return a >= AlignBottomLeft && a <= AlignTopRight
}

// String returns the kebab-case name of the position.
func (a Alignment) String() string {
	for name, v := range alignmentNames {
		if v == a {
			return name
		}
	}
	return fmt.Sprintf("alignment(%d)", int(a))
}

// ParseAlignment accepts either a position name ("bottom-center") or its
// numpad code ("2").
func ParseAlignment(s string) (Alignment, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if a, ok := alignmentNames[s]; ok {
		return a, nil
	}
	if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		return Alignment(s[0] - '0'), nil
	}
	return 0, errors.ValidationField("alignment", fmt.Sprintf("unknown alignment %q", s))
}

// UnmarshalJSON accepts a numpad code or a position name.
func (a *Alignment) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*a = Alignment(int(f))
		return nil
	}
	v, err := ParseAlignment(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// UnmarshalText lets TOML preset files use position names too.
func (a *Alignment) UnmarshalText(b []byte) error {
	v, err := ParseAlignment(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// StyleConfig is the single "Default" style embedded in a caption document.
type StyleConfig struct {
	FontName       string    `json:"font_name" toml:"font_name"`
	FontSize       int       `json:"font_size" toml:"font_size"`
	PrimaryColor   string    `json:"primary_color" toml:"primary_color"`
	SecondaryColor string    `json:"secondary_color" toml:"secondary_color"`
	OutlineColor   string    `json:"outline_color" toml:"outline_color"`
	BackColor      string    `json:"back_color" toml:"back_color"`
	Bold           bool      `json:"bold" toml:"bold"`
	Italic         bool      `json:"italic" toml:"italic"`
	Alignment      Alignment `json:"alignment" toml:"alignment"`
	MarginL        int       `json:"margin_l" toml:"margin_l"`
	MarginR        int       `json:"margin_r" toml:"margin_r"`
	MarginV        int       `json:"margin_v" toml:"margin_v"`
}

// DefaultStyle returns the style used when a job does not override anything.
func DefaultStyle() StyleConfig {
	return StyleConfig{
		FontName:       "Nunito",
		FontSize:       62,
		PrimaryColor:   "#FFFFFF",
		SecondaryColor: "#0000FF",
		OutlineColor:   "#000000",
		BackColor:      "#80000000",
		Bold:           true,
		Italic:         false,
		Alignment:      AlignBottomCenter,
		MarginL:        10,
		MarginR:        10,
		MarginV:        490,
	}
}

// Validate checks every field that ends up in the style line.
func (s StyleConfig) Validate() error {
	name := strings.TrimSpace(s.FontName)
	if name == "" {
		return errors.ValidationField("font_name", "font name is required")
	}
	// The style line is comma separated.
	if strings.Contains(name, ",") {
		return errors.ValidationField("font_name", "font name must not contain commas")
	}
	if s.FontSize <= 0 {
		return errors.ValidationField("font_size", fmt.Sprintf("font size must be positive, got %d", s.FontSize))
	}
	if !s.Alignment.Valid() {
		return errors.ValidationField("alignment", fmt.Sprintf("alignment must be 1-9, got %d", int(s.Alignment)))
	}
	if s.MarginL < 0 || s.MarginR < 0 || s.MarginV < 0 {
		return errors.ValidationField("margins", "margins must not be negative")
	}
	_, err := s.encodedColors()
	return err
}

type encodedColors struct {
	primary, secondary, outline, back string
}

func (s StyleConfig) encodedColors() (encodedColors, error) {
	var out encodedColors
	fields := []struct {
		name  string
		value string
		dst   *string
	}{
		{"primary_color", s.PrimaryColor, &out.primary},
		{"secondary_color", s.SecondaryColor, &out.secondary},
		{"outline_color", s.OutlineColor, &out.outline},
		{"back_color", s.BackColor, &out.back},
	}
	for _, f := range fields {
		c, err := EncodeColor(f.value)
		if err != nil {
			return encodedColors{}, errors.Wrap(err, "subtitle.style", "invalid "+f.name).WithField("field", f.name)
		}
		*f.dst = c
	}
	return out, nil
}

// EncodeColor converts a #RRGGBB or #AARRGGBB color into the ASS &HAABBGGRR
// form. Six-digit colors are fully opaque.
func EncodeColor(hex string) (string, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if !isHex(raw) {
		return "", errors.InvalidColorFormat(hex)
	}
	raw = strings.ToUpper(raw)

	alpha := "00"
	switch len(raw) {
	case 6:
	case 8:
		alpha, raw = raw[0:2], raw[2:]
	default:
		return "", errors.InvalidColorFormat(hex)
	}
	return "&H" + alpha + raw[4:6] + raw[2:4] + raw[0:2], nil
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func boolCode(v bool, on int) int {
	if v {
		return on
	}
	return 0
}
