package subtitle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// LoadStyleFile reads a TOML style preset. Keys absent from the file keep
// the values from DefaultStyle.
func LoadStyleFile(path string) (StyleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return StyleConfig{}, fmt.Errorf("read style file: %w", err)
	}
	style := DefaultStyle()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&style); err != nil {
		return StyleConfig{}, fmt.Errorf("parse style file %s: %w", path, err)
	}
	return style, nil
}

// EncodeTOML renders style as a TOML preset file.
func EncodeTOML(style StyleConfig) ([]byte, error) {
	return toml.Marshal(style)
}

// MergeStyle overlays the keys present in each override map, in order, onto
// base. Maps use the JSON field names of StyleConfig.
func MergeStyle(base StyleConfig, overrides ...map[string]any) (StyleConfig, error) {
	merged := map[string]any{}
	for _, o := range overrides {
		for k, v := range o {
			merged[k] = v
		}
	}
	if len(merged) == 0 {
		return base, nil
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		return StyleConfig{}, fmt.Errorf("encode style overrides: %w", err)
	}
	out := base
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return StyleConfig{}, fmt.Errorf("decode style overrides: %w", err)
	}
	return out, nil
}
