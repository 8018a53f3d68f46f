package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	cerrors "github.com/conduit-lang/querymodel/internal/compiler/errors"
)

func TestFormatError(t *testing.T) {
	output := FormatError(ErrorOptions{
		Level:        ErrorLevelError,
		Context:      "entity not found",
		Problem:      "Cannot find entity 'Pst'.",
		Hint:         "Entity names are case sensitive",
		Suggestions:  []string{"Post", "Tag"},
		HelpCommands: []string{"List the model: querymodel validate --list"},
		NoColor:      true,
	})

	for _, want := range []string{
		"❌ ENTITY NOT FOUND: Cannot find entity 'Pst'.",
		"Hint: Entity names are case sensitive",
		"Did you mean: Post, Tag?",
		"→ List the model: querymodel validate --list",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("FormatError output missing %q:\n%s", want, output)
		}
	}
}

func TestFormatErrorLevels(t *testing.T) {
	if out := Warning("two collections configured as join", true); !strings.HasPrefix(out, "⚠️") {
		t.Errorf("warning should start with the warning symbol, got %q", out)
	}
	info := FormatError(ErrorOptions{Level: ErrorLevelInfo, Problem: "cache disabled", NoColor: true})
	if !strings.HasPrefix(info, "ℹ️ cache disabled") {
		t.Errorf("unexpected info output %q", info)
	}
}

func TestCompilerErrorOptions(t *testing.T) {
	ce := cerrors.NewPluralDereference(cerrors.At("p.comments.body", 1), "comments")
	opts := CompilerErrorOptions(ce, true)

	if opts.Level != ErrorLevelError {
		t.Errorf("expected error level, got %v", opts.Level)
	}
	if !strings.HasPrefix(opts.Context, "QRY200 ") {
		t.Errorf("context should start with the code, got %q", opts.Context)
	}
	if opts.Consequence != "in 'p.comments.body', segment 2" {
		t.Errorf("unexpected location %q", opts.Consequence)
	}
	if len(opts.HelpCommands) != 1 || !strings.Contains(opts.HelpCommands[0], "QRY200") {
		t.Errorf("expected a documentation link, got %v", opts.HelpCommands)
	}
}

func TestFormatCommandError(t *testing.T) {
	wrapped := errors.Join(errors.New("plan failed"), cerrors.NewUnknownPersister("entity", "Nope"))
	if out := FormatCommandError(wrapped, true); !strings.Contains(out, "MDL304") {
		t.Errorf("wrapped compiler error lost its code:\n%s", out)
	}

	out := FormatCommandError(errors.New("boom"), true)
	if out != "❌ boom\n" {
		t.Errorf("plain error = %q", out)
	}
}

func TestNameNotFoundError(t *testing.T) {
	out := NameNotFoundError("entity", "Pots", []string{"Post", "Department"}, true)
	if !strings.Contains(out, "Cannot find entity 'Pots'.") {
		t.Errorf("missing problem line:\n%s", out)
	}
	if !strings.Contains(out, "Did you mean: Post?") {
		t.Errorf("missing suggestion:\n%s", out)
	}
}

func TestConfigError(t *testing.T) {
	out := ConfigError("compiler.collection_join_limit must be 0 or 1", true)
	if !strings.Contains(out, "CONFIGURATION ERROR") || !strings.Contains(out, "querymodel.yml") {
		t.Errorf("unexpected config error:\n%s", out)
	}
}

func TestWriteSuccess(t *testing.T) {
	var buf bytes.Buffer
	WriteSuccess(&buf, "model is valid", true)
	if buf.String() != "✓ model is valid\n" {
		t.Errorf("WriteSuccess output = %q", buf.String())
	}
}
