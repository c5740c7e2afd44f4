package render

import (
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// ThemeConfig flattens a theme selection into renderer configuration.
// Variant tokens, templates and asset files override the base manifest;
// every token becomes a "--<name>" CSS variable. A nil selection or a
// selection without manifest yields nil.
func ThemeConfig(selection *theme.Selection) *theme.RendererConfig {
	if selection == nil || selection.Manifest == nil {
		return nil
	}
	manifest := selection.Manifest
	variant, hasVariant := manifest.Variants[selection.Variant]

	tokens := mergeStrings(manifest.Tokens, nil)
	partials := mergeStrings(manifest.Templates, nil)
	if hasVariant {
		tokens = mergeStrings(tokens, variant.Tokens)
		partials = mergeStrings(partials, variant.Templates)
	}

	var cssVars map[string]string
	if len(tokens) > 0 {
		cssVars = make(map[string]string, len(tokens))
		for key, value := range tokens {
			cssVars["--"+key] = value
		}
	}

	name := selection.Theme
	if name == "" {
		name = manifest.Name
	}
	return &theme.RendererConfig{
		Theme:    name,
		Variant:  selection.Variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  cssVars,
		AssetURL: assetResolver(manifest.Assets, variant.Assets, hasVariant),
	}
}

func assetResolver(base, variant theme.Assets, hasVariant bool) func(string) string {
	return func(key string) string {
		if key == "" {
			return ""
		}
		if hasVariant {
			if file, ok := variant.Files[key]; ok {
				prefix := variant.Prefix
				if prefix == "" {
					prefix = base.Prefix
				}
				return joinAsset(prefix, file)
			}
		}
		if file, ok := base.Files[key]; ok {
			return joinAsset(base.Prefix, file)
		}
		return ""
	}
}

func joinAsset(prefix, file string) string {
	if prefix == "" {
		return file
	}
	return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(file, "/")
}

func mergeStrings(base, over map[string]string) map[string]string {
	if len(base) == 0 && len(over) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(over))
	for key, value := range base {
		out[key] = value
	}
	for key, value := range over {
		out[key] = value
	}
	return out
}

// themeContext is what templates see as `theme`.
func themeContext(cfg *theme.RendererConfig) map[string]any {
	if cfg == nil {
		return map[string]any{}
	}
	ctx := map[string]any{
		"name":         cfg.Theme,
		"variant":      cfg.Variant,
		"tokens":       stringMapAny(cfg.Tokens),
		"cssVars":      stringMapAny(cfg.CSSVars),
		"cssVarsStyle": cssVarsStyle(cfg.CSSVars),
	}
	if cfg.AssetURL != nil {
		ctx["stylesheet"] = cfg.AssetURL("stylesheet")
	}
	return ctx
}

func stringMapAny(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}
