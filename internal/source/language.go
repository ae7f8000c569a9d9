package source

import (
	"strings"

	"github.com/src-d/enry/v2"
)

// Language identifies the programming language of a source file.
type Language string

const (
	LangUnknown Language = ""
	LangPython  Language = "python"
	LangC       Language = "c"
	LangCPP     Language = "cpp"
	LangJava    Language = "java"
	LangGo      Language = "go"
)

// enryNames maps linguist language names to the languages reforge handles.
var enryNames = map[string]Language{
	"Python": LangPython,
	"C":      LangC,
	"C++":    LangCPP,
	"Java":   LangJava,
	"Go":     LangGo,
}

// FilenameBound reports whether the language requires the top-level type
// name to equal the file's base name.
func (l Language) FilenameBound() bool {
	return l == LangJava
}

// Label returns the upper-case name used in prompts and panels.
func (l Language) Label() string {
	if l == LangUnknown {
		return "UNKNOWN"
	}
	return strings.ToUpper(string(l))
}

// DetectLanguage returns the language of name, using the extension first and
// the content when the extension is ambiguous (e.g. ".h").
func DetectLanguage(name string, content []byte) Language {
	if lang, safe := enry.GetLanguageByExtension(name); safe {
		return enryNames[lang]
	}
	return enryNames[enry.GetLanguage(name, content)]
}
