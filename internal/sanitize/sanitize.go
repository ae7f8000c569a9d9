// Package sanitize turns raw model output into source text that can be
// written to disk.
package sanitize

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/source"
)

const fence = "```"

// languageTags are the bare first-line tags models put in front of code
// when they drop the fence but keep its info string.
var languageTags = map[string]bool{
	"python": true,
	"c":      true,
	"c++":    true,
	"cpp":    true,
	"java":   true,
	"go":     true,
	"golang": true,
}

// Sanitize strips transport artifacts from model output: fence lines are
// dropped, leading bare language tags are dropped, and surrounding
// whitespace is trimmed. Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(strings.TrimSpace(line), fence) {
			continue
		}
		kept = append(kept, line)
	}

	// A tag is only recognised on the first non-blank line; keep dropping
	// so the result never starts with one.
	for len(kept) > 0 {
		first := strings.ToLower(strings.TrimSpace(kept[0]))
		if first != "" && !languageTags[first] {
			break
		}
		kept = kept[1:]
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// declRe matches a conventional top-level type declaration: optional
// modifiers, one type keyword, then the name.
var declRe = regexp.MustCompile(`(?m)^[ \t]*(?:(?:public|protected|private|abstract|final|sealed|static|strictfp)[ \t]+)*(?:class|interface|enum|record)[ \t]+([A-Za-z_$][A-Za-z0-9_$]*)`)

// RenameDeclaredType rewrites the name of the first top-level type
// declaration in code to the base name of fileName. Only the identifier is
// replaced; every other byte is preserved. Declarations that do not follow
// the modifiers-keyword-name shape are left alone.
func RenameDeclaredType(code, fileName string) string {
	want := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	if want == "" {
		return code
	}
	loc := declRe.FindStringSubmatchIndex(code)
	if loc == nil {
		return code
	}
	start, end := loc[2], loc[3]
	if code[start:end] == want {
		return code
	}
	return code[:start] + want + code[end:]
}

// Rewrite sanitizes raw model output for a file of the given language and
// applies the language-specific corrections.
func Rewrite(lang source.Language, raw, fileName string) string {
	code := Sanitize(raw)
	if lang.FilenameBound() {
		code = RenameDeclaredType(code, fileName)
	}
	return code
}
