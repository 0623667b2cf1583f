package chart

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Styles lists the recognised chart styles
var Styles = []string{"whitegrid", "darkgrid", "white", "dark", "ticks"}

// DefaultStyle is used when the configured style is unknown
const DefaultStyle = "whitegrid"

// FallbackFont is the generic family used when no preferred font is installed
const FallbackFont = "sans-serif"

// StyleResult reports how the chart style was resolved
type StyleResult struct {
	Style  string
	OK     bool
	Reason string
}

// FontResult reports how the chart font was resolved. Source is
// "configured", "system" or "fallback".
type FontResult struct {
	Family string
	Source string
	OK     bool
	Reason string
}

// ResolveStyle validates a style name, falling back to DefaultStyle
func ResolveStyle(name string) StyleResult {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return StyleResult{Style: DefaultStyle, OK: true}
	}
	for _, s := range Styles {
		if s == name {
			return StyleResult{Style: s, OK: true}
		}
	}
	return StyleResult{
		Style:  DefaultStyle,
		Reason: fmt.Sprintf("unknown chart style %q, using %s", name, DefaultStyle),
	}
}

// FontLookup reports whether a font family is installed
type FontLookup func(family string) bool

// preferredFonts lists Hangul-capable families per platform, in order
var preferredFonts = map[string][]string{
	"windows": {"Malgun Gothic", "NanumGothic", "NanumBarunGothic", "Gulim"},
	"darwin":  {"AppleGothic", "NanumGothic", "NanumBarunGothic"},
	"linux":   {"NanumGothic", "NanumBarunGothic", "UnDotum"},
}

// ResolveFont picks the configured family, else the first installed preferred
// family for the platform, else FallbackFont with OK false.
func ResolveFont(configured string, lookup FontLookup) FontResult {
	if lookup == nil {
		lookup = SystemFontLookup(runtime.GOOS)
	}

	if configured = strings.TrimSpace(configured); configured != "" {
		if lookup(configured) {
			return FontResult{Family: configured, Source: "configured", OK: true}
		}
	}

	for _, family := range preferredFonts[runtime.GOOS] {
		if lookup(family) {
			res := FontResult{Family: family, Source: "system", OK: true}
			if configured != "" {
				res.Reason = fmt.Sprintf("font %q not installed, using %s", configured, family)
			}
			return res
		}
	}

	return FontResult{
		Family: FallbackFont,
		Source: "fallback",
		Reason: "no Hangul-capable font found; Korean labels may not display correctly",
	}
}

func fontDirs(goos string) []string {
	switch goos {
	case "windows":
		return []string{`C:\Windows\Fonts`}
	case "darwin":
		return []string{"/Library/Fonts", "/System/Library/Fonts"}
	default:
		dirs := []string{"/usr/share/fonts", "/usr/local/share/fonts"}
		if home, err := os.UserHomeDir(); err == nil {
			dirs = append(dirs, filepath.Join(home, ".fonts"), filepath.Join(home, ".local", "share", "fonts"))
		}
		return dirs
	}
}

// SystemFontLookup scans the platform font directories once and matches a
// family by file name with spaces removed, case-insensitively.
func SystemFontLookup(goos string) FontLookup {
	var names []string
	for _, dir := range fontDirs(goos) {
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() {
				names = append(names, strings.ToLower(d.Name()))
			}
			return nil
		})
	}

	return func(family string) bool {
		key := strings.ToLower(strings.ReplaceAll(family, " ", ""))
		for _, n := range names {
			if strings.Contains(n, key) {
				return true
			}
		}
		return false
	}
}
