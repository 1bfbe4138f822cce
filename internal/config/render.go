package config

import (
	"bytes"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// RenderDefaultTOML renders a commented TOML config with defaults from
// GetConfigOptions.
func RenderDefaultTOML() string {
	var b strings.Builder
	b.WriteString("# msgbus configuration (TOML)\n\n")

	opts := GetConfigOptions()
	sections := make(map[string][]ConfigOption)
	sectionOrder := make([]string, 0)
	for _, o := range opts {
		if _, isTable := o.Default.(map[string]any); isTable {
			continue
		}
		section, key, ok := strings.Cut(o.Key, ".")
		if !ok {
			writeOption(&b, o.Key, o.Default, o.Comment)
			continue
		}
		if _, seen := sections[section]; !seen {
			sectionOrder = append(sectionOrder, section)
		}
		sections[section] = append(sections[section], ConfigOption{Key: key, Default: o.Default, Comment: o.Comment})
	}
	for _, section := range sectionOrder {
		b.WriteString("[" + section + "]\n")
		for _, o := range sections[section] {
			writeOption(&b, o.Key, o.Default, o.Comment)
		}
	}
	// Tables last so their keys do not swallow later options.
	for _, o := range opts {
		if _, isTable := o.Default.(map[string]any); isTable {
			b.WriteString("# " + o.Comment + "\n[" + o.Key + "]\n\n")
		}
	}
	return b.String()
}

func writeOption(b *strings.Builder, key string, value any, comment string) {
	if comment != "" {
		b.WriteString("# " + comment + "\n")
	}
	var buf bytes.Buffer
	_ = toml.NewEncoder(&buf).Encode(map[string]any{key: value})
	b.Write(buf.Bytes())
	b.WriteString("\n")
}

// RenderEffectiveTOML encodes the merged settings of v.
func RenderEffectiveTOML(v *viper.Viper) (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(v.AllSettings()); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Keys lists every known option key, sorted.
func Keys() []string {
	out := make([]string, 0)
	for _, o := range GetConfigOptions() {
		out = append(out, o.Key)
	}
	sort.Strings(out)
	return out
}
