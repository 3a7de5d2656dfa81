package subtitle

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subburn/internal/pkg/errors"
)

func TestEncodeColor(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "white", input: "#FFFFFF", expect: "&H00FFFFFF"},
		{name: "blue", input: "#0000FF", expect: "&H00FF0000"},
		{name: "red without hash", input: "ff0000", expect: "&H000000FF"},
		{name: "lower case is normalised", input: "#12ab34", expect: "&H0034AB12"},
		{name: "alpha is preserved", input: "#80000000", expect: "&H80000000"},
		{name: "alpha with channels", input: "#4011AA22", expect: "&H4022AA11"},
		{name: "surrounding space", input: "  #010203 ", expect: "&H00030201"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeColor(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, got)
		})
	}
}

func TestEncodeColorSixDigitShape(t *testing.T) {
	for _, rgb := range []int{0x000000, 0x123456, 0xABCDEF, 0xFFFFFF, 0x0F0F0F, 0x808000} {
		in := fmt.Sprintf("#%06X", rgb)
		got, err := EncodeColor(in)
		require.NoError(t, err)

		require.Len(t, got, 10)
		assert.True(t, strings.HasPrefix(got, "&H00"))
		r, g, b := in[1:3], in[3:5], in[5:7]
		assert.Equal(t, b+g+r, got[4:], "channels must be reversed for %s", in)
	}
}

func TestEncodeColorInvalid(t *testing.T) {
	for _, in := range []string{"", "#", "#FFF", "#FFFFF", "#FFFFFFF", "#GGGGGG", "#12345678AB", "red"} {
		t.Run(in, func(t *testing.T) {
			_, err := EncodeColor(in)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeInvalidColorFormat))
		})
	}
}

func TestStyleValidate(t *testing.T) {
	require.NoError(t, DefaultStyle().Validate())

	tests := []struct {
		name   string
		mutate func(*StyleConfig)
		code   errors.Code
		field  string
	}{
		{"empty font", func(s *StyleConfig) { s.FontName = " " }, errors.CodeValidation, "font_name"},
		{"comma in font", func(s *StyleConfig) { s.FontName = "Arial,Bold" }, errors.CodeValidation, "font_name"},
		{"zero size", func(s *StyleConfig) { s.FontSize = 0 }, errors.CodeValidation, "font_size"},
		{"bad alignment", func(s *StyleConfig) { s.Alignment = 10 }, errors.CodeValidation, "alignment"},
		{"negative margin", func(s *StyleConfig) { s.MarginV = -1 }, errors.CodeValidation, "margins"},
		{"bad outline color", func(s *StyleConfig) { s.OutlineColor = "#XYZXYZ" }, errors.CodeInvalidColorFormat, "outline_color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultStyle()
			tt.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
			assert.Equal(t, tt.field, errors.GetFields(err)["field"])
		})
	}
}

func TestParseAlignment(t *testing.T) {
	a, err := ParseAlignment("Top-Center")
	require.NoError(t, err)
	assert.Equal(t, AlignTopCenter, a)

	a, err = ParseAlignment("5")
	require.NoError(t, err)
	assert.Equal(t, AlignMiddleCenter, a)

	_, err = ParseAlignment("0")
	assert.Error(t, err)
	_, err = ParseAlignment("sideways")
	assert.Error(t, err)

	assert.Equal(t, "bottom-center", AlignBottomCenter.String())
}

func TestAlignmentUnmarshalJSON(t *testing.T) {
	var s struct {
		A Alignment `json:"a"`
		B Alignment `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 8, "b": "middle-center"}`), &s))
	assert.Equal(t, AlignTopCenter, s.A)
	assert.Equal(t, AlignMiddleCenter, s.B)
}
