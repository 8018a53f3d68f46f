package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	cerrors "github.com/conduit-lang/querymodel/internal/compiler/errors"
)

// ErrorLevel represents the severity of an error message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Consequence  string
	Hint         string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// FormatError creates a standardized error message with suggestions and help commands
//
// Example output:
//
//	❌ ENTITY NOT FOUND: Pst
//	   Cannot find entity 'Pst'.
//
//	   Did you mean: Post, PostStat?
//
//	   → List the model: querymodel validate --list
func FormatError(opts ErrorOptions) string {
	var b strings.Builder
	ls := levelStyles[opts.Level]
	header := style(opts.NoColor, ls.header...)

	if opts.Context != "" {
		header.Fprintf(&b, "%s %s: %s\n", ls.symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", ls.symbol, opts.Problem)
	}
	if opts.Consequence != "" {
		style(opts.NoColor, ls.body).Fprintf(&b, "   %s\n", opts.Consequence)
	}
	if opts.Hint != "" {
		fmt.Fprintf(&b, "\n   Hint: %s\n", opts.Hint)
	}
	if len(opts.Suggestions) > 0 {
		style(opts.NoColor, color.FgYellow).Fprintf(&b, "\n   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}
	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		help := style(opts.NoColor, color.FgCyan)
		for _, cmd := range opts.HelpCommands {
			help.Fprintf(&b, "   → %s\n", cmd)
		}
	}
	return b.String()
}

type levelStyle struct {
	symbol string
	header []color.Attribute
	body   color.Attribute
}

var levelStyles = map[ErrorLevel]levelStyle{
	ErrorLevelError:   {symbol: "❌", header: []color.Attribute{color.FgRed, color.Bold}, body: color.FgRed},
	ErrorLevelWarning: {symbol: "⚠️", header: []color.Attribute{color.FgYellow, color.Bold}, body: color.FgYellow},
	ErrorLevelInfo:    {symbol: "ℹ️", header: []color.Attribute{color.FgCyan, color.Bold}, body: color.FgCyan},
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	return style(noColor, color.FgGreen, color.Bold).Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// CompilerErrorOptions maps a structured compiler error onto the terminal
// error layout
func CompilerErrorOptions(ce *cerrors.CompilerError, noColor bool) ErrorOptions {
	level := ErrorLevelError
	switch ce.Severity {
	case cerrors.SeverityWarning:
		level = ErrorLevelWarning
	case cerrors.SeverityInfo:
		level = ErrorLevelInfo
	}

	opts := ErrorOptions{
		Level:   level,
		Context: fmt.Sprintf("%s %s", ce.Code, strings.ReplaceAll(ce.Type, "_", " ")),
		Problem: ce.Message,
		Hint:    ce.Suggestion,
		NoColor: noColor,
	}
	if loc := ce.Location; loc.Path != "" {
		if loc.Segment >= 0 {
			opts.Consequence = fmt.Sprintf("in '%s', segment %d", loc.Path, loc.Segment+1)
		} else {
			opts.Consequence = fmt.Sprintf("in '%s'", loc.Path)
		}
	}
	if ce.Documentation != "" {
		opts.HelpCommands = []string{"Documentation: " + ce.Documentation}
	}
	return opts
}

// FormatCommandError renders any command error. Compiler errors keep their
// code, location and hint.
func FormatCommandError(err error, noColor bool) string {
	if ce, ok := cerrors.AsCompilerError(err); ok {
		return FormatError(CompilerErrorOptions(ce, noColor))
	}
	return FormatError(ErrorOptions{Level: ErrorLevelError, Problem: err.Error(), NoColor: noColor})
}

// NameNotFoundError reports an unknown entity, collection role or fetch
// profile with close matches from candidates
func NameNotFoundError(kind, name string, candidates []string, noColor bool) string {
	opts := ErrorOptions{
		Level:       ErrorLevelError,
		Context:     kind + " not found",
		Problem:     fmt.Sprintf("Cannot find %s '%s'.", kind, name),
		Suggestions: FindSimilar(name, candidates, nil),
		HelpCommands: []string{
			"List the model: querymodel validate --list",
		},
		NoColor: noColor,
	}
	return FormatError(opts)
}

// ConfigError creates a standardized configuration error
func ConfigError(message string, noColor bool) string {
	opts := ErrorOptions{
		Level:   ErrorLevelError,
		Context: "configuration error",
		Problem: message,
		HelpCommands: []string{
			"View config: cat querymodel.yml",
			"Get help: querymodel --help",
		},
		NoColor: noColor,
	}
	return FormatError(opts)
}

// Warning creates a standardized warning message
func Warning(message string, noColor bool) string {
	return FormatError(ErrorOptions{Level: ErrorLevelWarning, Problem: message, NoColor: noColor})
}
