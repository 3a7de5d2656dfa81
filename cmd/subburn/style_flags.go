package main

import (
	"github.com/spf13/cobra"

	"subburn/internal/subtitle"
)

// styleFlags binds the StyleConfig fields as flags. Only flags the user set
// override the preset file, which itself overrides the defaults.
type styleFlags struct {
	file string

	fontName       string
	fontSize       int
	primaryColor   string
	secondaryColor string
	outlineColor   string
	backColor      string
	bold           bool
	italic         bool
	alignment      string
	marginL        int
	marginR        int
	marginV        int
}

func (f *styleFlags) register(cmd *cobra.Command) {
	def := subtitle.DefaultStyle()
	fs := cmd.Flags()

	fs.StringVar(&f.file, "style", "", "TOML style preset file")
	fs.StringVar(&f.fontName, "font-name", def.FontName, "Font family")
	fs.IntVar(&f.fontSize, "font-size", def.FontSize, "Font size")
	fs.StringVar(&f.primaryColor, "primary-color", def.PrimaryColor, "Text color, #RRGGBB or #AARRGGBB")
	fs.StringVar(&f.secondaryColor, "secondary-color", def.SecondaryColor, "Karaoke color")
	fs.StringVar(&f.outlineColor, "outline-color", def.OutlineColor, "Outline color")
	fs.StringVar(&f.backColor, "back-color", def.BackColor, "Shadow/box color")
	fs.BoolVar(&f.bold, "bold", def.Bold, "Bold text")
	fs.BoolVar(&f.italic, "italic", def.Italic, "Italic text")
	fs.StringVar(&f.alignment, "alignment", def.Alignment.String(), "Position name (bottom-center) or numpad code (1-9)")
	fs.IntVar(&f.marginL, "margin-l", def.MarginL, "Left margin")
	fs.IntVar(&f.marginR, "margin-r", def.MarginR, "Right margin")
	fs.IntVar(&f.marginV, "margin-v", def.MarginV, "Vertical margin")
}

func (f *styleFlags) resolve(cmd *cobra.Command) (subtitle.StyleConfig, error) {
	base := subtitle.DefaultStyle()
	if f.file != "" {
		loaded, err := subtitle.LoadStyleFile(f.file)
		if err != nil {
			return subtitle.StyleConfig{}, err
		}
		base = loaded
	}

	changed := func(name string) bool { return cmd.Flags().Changed(name) }
	overrides := map[string]any{}
	set := func(flag, key string, v any) {
		if changed(flag) {
			overrides[key] = v
		}
	}
	set("font-name", "font_name", f.fontName)
	set("font-size", "font_size", f.fontSize)
	set("primary-color", "primary_color", f.primaryColor)
	set("secondary-color", "secondary_color", f.secondaryColor)
	set("outline-color", "outline_color", f.outlineColor)
	set("back-color", "back_color", f.backColor)
	set("bold", "bold", f.bold)
	set("italic", "italic", f.italic)
	set("alignment", "alignment", f.alignment)
	set("margin-l", "margin_l", f.marginL)
	set("margin-r", "margin_r", f.marginR)
	set("margin-v", "margin_v", f.marginV)

	style, err := subtitle.MergeStyle(base, overrides)
	if err != nil {
		return subtitle.StyleConfig{}, err
	}
	if err := style.Validate(); err != nil {
		return subtitle.StyleConfig{}, err
	}
	return style, nil
}
