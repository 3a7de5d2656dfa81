package subtitle

import (
	"bufio"
	"fmt"
	"io"
)

// FadeTag fades each dialogue line in and out over 500ms.
const FadeTag = `{\fad(500,500)}`

// StyleName is the only style defined in a generated document.
const StyleName = "Default"

const scriptInfo = `[Script Info]
Title: Styled Subtitles
ScriptType: v4.00+
Collisions: Normal
PlayDepth: 0
PlayResX: 1920
PlayResY: 1080

`

const stylesFormat = "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding"

const eventsFormat = "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text"

// WriteDocument writes the header for style followed by one dialogue line
// per cue.
func WriteDocument(w io.Writer, style StyleConfig, cues []Cue) error {
	colors, err := style.encodedColors()
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(scriptInfo)
	bw.WriteString("[V4+ Styles]\n")
	bw.WriteString(stylesFormat + "\n")
	fmt.Fprintf(bw, "Style: %s,%s,%d,%s,%s,%s,%s,%d,%d,0,0,100,100,0,0,1,3,2,%d,%d,%d,%d,1\n",
		StyleName,
		style.FontName,
		style.FontSize,
		colors.primary,
		colors.secondary,
		colors.outline,
		colors.back,
		boolCode(style.Bold, -1),
		boolCode(style.Italic, 1),
		int(style.Alignment),
		style.MarginL,
		style.MarginR,
		style.MarginV,
	)
	bw.WriteString("\n[Events]\n")
	bw.WriteString(eventsFormat + "\n")

	for _, c := range cues {
		fmt.Fprintf(bw, "Dialogue: 0,%s,%s,%s,,0,0,0,,%s%s\n", c.Start.ASS(), c.End.ASS(), StyleName, FadeTag, c.Text)
	}
	return bw.Flush()
}
