package errors

import (
	"fmt"
	"strings"
)

// FormatError returns a human-readable error message for terminal output
func FormatError(e *CompilerError) string {
	var b strings.Builder

	icon := severityIcon(e.Severity)
	categoryName := categoryDisplayName(e.Category)

	fmt.Fprintf(&b, "%s %s [%s]\n", icon, categoryName, e.Code)

	if e.Location.Path != "" {
		fmt.Fprintf(&b, "  %s\n", e.Location.Path)
		if marker := segmentMarker(e.Location); marker != "" {
			fmt.Fprintf(&b, "  %s\n", marker)
		}
	}
	fmt.Fprintf(&b, "  %s\n", e.Message)

	if e.Expected != "" || e.Actual != "" {
		b.WriteString("\n")
		if e.Expected != "" {
			fmt.Fprintf(&b, "  Expected: %s\n", e.Expected)
		}
		if e.Actual != "" {
			fmt.Fprintf(&b, "  Actual:   %s\n", e.Actual)
		}
	}

	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n💡 %s\n", e.Suggestion)
	}

	if len(e.Examples) > 0 {
		b.WriteString("\nQuick Fixes:\n")
		for i, example := range e.Examples {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, example)
		}
	}

	if e.Documentation != "" {
		fmt.Fprintf(&b, "\nLearn more: %s\n", e.Documentation)
	}

	return b.String()
}

// FormatErrorList returns a formatted string of all errors
func FormatErrorList(errors ErrorList) string {
	if len(errors) == 0 {
		return "no errors"
	}

	var b strings.Builder

	errCount, warnCount, infoCount := errors.ErrorCount()
	fmt.Fprintf(&b, "Compilation failed with %d error(s), %d warning(s), %d info\n\n",
		errCount, warnCount, infoCount)

	for i, err := range errors {
		if i > 0 {
			b.WriteString("\n" + strings.Repeat("-", 80) + "\n\n")
		}
		b.WriteString(err.Format())
	}

	return b.String()
}

// FormatCompact returns a compact one-line error format
func FormatCompact(e *CompilerError) string {
	if e.Location.Path == "" {
		return fmt.Sprintf("%s: %s [%s]", e.Severity, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s [%s]", e.Location.Path, e.Severity, e.Message, e.Code)
}

// segmentMarker underlines the offending segment of a dotted path
func segmentMarker(loc Location) string {
	if loc.Segment < 0 {
		return ""
	}
	parts := strings.Split(loc.Path, ".")
	if loc.Segment >= len(parts) {
		return ""
	}
	offset := 0
	for _, p := range parts[:loc.Segment] {
		offset += len(p) + 1
	}
	return strings.Repeat(" ", offset) + strings.Repeat("^", len(parts[loc.Segment]))
}

// severityIcon returns the emoji/icon for a severity level
func severityIcon(severity ErrorSeverity) string {
	switch severity {
	case SeverityError:
		return "❌"
	case SeverityWarning:
		return "⚠️ "
	case SeverityInfo:
		return "ℹ️ "
	default:
		return "❓"
	}
}

// categoryDisplayName returns a human-readable category name
func categoryDisplayName(category ErrorCategory) string {
	switch category {
	case CategorySemantic:
		return "Semantic Error"
	case CategoryModel:
		return "Model Error"
	default:
		return "Compiler Error"
	}
}
