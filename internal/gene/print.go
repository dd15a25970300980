package gene

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OutputFormat is the language of the generated test code a printed value
// is embedded in.
type OutputFormat int

const (
	// FormatNone disables escaping.
	FormatNone OutputFormat = iota
	FormatKotlin
	FormatJava
	FormatJavaScript
)

func (f OutputFormat) String() string {
	switch f {
	case FormatNone:
		return "none"
	case FormatKotlin:
		return "kotlin"
	case FormatJava:
		return "java"
	case FormatJavaScript:
		return "javascript"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseOutputFormat maps a configuration name to an output format.
func ParseOutputFormat(name string) (OutputFormat, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return FormatNone, nil
	case "kotlin":
		return FormatKotlin, nil
	case "java":
		return FormatJava, nil
	case "javascript", "js":
		return FormatJavaScript, nil
	default:
		return 0, fmt.Errorf("unsupported output format: %s", name)
	}
}

// EscapeMode selects how composite genes lay out their printed value.
type EscapeMode int

const (
	EscapeText EscapeMode = iota
	EscapeJSON
	// EscapeGraphQL prints object genes as a selection set.
	EscapeGraphQL
)

type PrintOptions struct {
	Mode   EscapeMode
	Format OutputFormat
}

var (
	javaEscaper   = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	kotlinEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`, "$", `\$`)
)

// Escape makes s safe to place inside a double-quoted literal of format.
func Escape(s string, format OutputFormat) string {
	switch format {
	case FormatNone:
		return s
	case FormatKotlin:
		return kotlinEscaper.Replace(s)
	default:
		return javaEscaper.Replace(s)
	}
}

func quote(s string, format OutputFormat) string {
	return `"` + Escape(s, format) + `"`
}

// jsonQuote renders s as a JSON string literal.
func jsonQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
