package commands

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/conduit-lang/querymodel/internal/compiler/errors"
	"github.com/conduit-lang/querymodel/internal/orm/queryspace"
	"github.com/conduit-lang/querymodel/internal/orm/schema/schematest"
)

// inModelDir runs a test from a directory holding the blog model as model.yml
func inModelDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/model.yml", []byte(schematest.BlogModel), 0644))

	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
	return dir
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--no-color"))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "querymodel", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	for _, name := range []string{"version", "plan", "resolve", "validate"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
	for _, flag := range []string{"config", "model", "no-color"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestVersionCommand(t *testing.T) {
	Version = "1.0.0-test"
	GitCommit = "abc123"
	defer func() { Version, GitCommit = "dev", "unknown" }()

	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "querymodel version: 1.0.0-test")
	assert.Contains(t, out, "abc123")
}

func TestPlanCommand(t *testing.T) {
	inModelDir(t)

	t.Run("entity", func(t *testing.T) {
		out, _, err := run(t, "plan", "Post")
		require.NoError(t, err)
		assert.Contains(t, out, "Post [entity root <gen:1>]")
		assert.Contains(t, out, "tags -> Post.tags immediate/select depth=1 (collection_limit: immediate/join)")
	})

	t.Run("collection with summary", func(t *testing.T) {
		out, _, err := run(t, "plan", "Department.leads", "--collection", "--summary")
		require.NoError(t, err)
		assert.Contains(t, out, "Department.leads [collection root <gen:1>]")
		assert.Contains(t, out, "index Region")
		assert.Contains(t, out, "Profile:")
	})

	t.Run("profile", func(t *testing.T) {
		out, _, err := run(t, "plan", "Post", "--profile", "with-attachments", "--summary")
		require.NoError(t, err)
		assert.Contains(t, out, "comments -> Post.comments delayed/select depth=1")
		assert.Contains(t, out, "with-attachments")
	})

	t.Run("unknown entity suggests names", func(t *testing.T) {
		_, stderr, err := run(t, "plan", "Pots")
		require.ErrorIs(t, err, errReported)
		assert.Contains(t, stderr, "Cannot find entity 'Pots'.")
		assert.Contains(t, stderr, "Did you mean: Post")
	})

	t.Run("unknown profile", func(t *testing.T) {
		_, stderr, err := run(t, "plan", "Post", "--profile", "with-attachment")
		require.ErrorIs(t, err, errReported)
		assert.Contains(t, stderr, "Did you mean: with-attachments?")
	})

	t.Run("requires a name", func(t *testing.T) {
		_, _, err := run(t, "plan")
		assert.Error(t, err)
	})
}

func TestResolveCommand(t *testing.T) {
	inModelDir(t)

	t.Run("implicit join", func(t *testing.T) {
		out, _, err := run(t, "resolve", "--from", "Post:p", "p.author.name", "p.title")
		require.NoError(t, err)
		assert.Contains(t, out, "p.author.name")
		assert.Contains(t, out, "Query spaces")
		assert.Contains(t, out, "p(entity Post)")
		assert.Contains(t, out, "-[INNER author]->")
	})

	t.Run("explicit join and selection", func(t *testing.T) {
		out, _, err := run(t, "resolve", "--from", "Post:p", "--join", "p.comments:c:left", "--select", "c.author")
		require.NoError(t, err)
		assert.Contains(t, out, "c.author")
		assert.Contains(t, out, "-[LEFT comments]->")
	})

	t.Run("semantic error", func(t *testing.T) {
		_, _, err := run(t, "resolve", "--from", "Post:p", "p.comments.body")
		assert.Equal(t, cerrors.ErrPluralDereference, cerrors.CodeOf(err))
	})

	t.Run("from is required", func(t *testing.T) {
		_, _, err := run(t, "resolve", "p.title")
		assert.Error(t, err)
	})
}

func TestParseJoinSpec(t *testing.T) {
	tests := []struct {
		spec    string
		want    joinSpec
		wantErr bool
	}{
		{spec: "p.comments:c", want: joinSpec{path: "p.comments", alias: "c", joinType: queryspace.InnerJoin}},
		{spec: "p.author:a:left", want: joinSpec{path: "p.author", alias: "a", joinType: queryspace.LeftJoin}},
		{spec: "p.tags:t:full:fetch", want: joinSpec{path: "p.tags", alias: "t", joinType: queryspace.FullJoin, fetched: true}},
		{spec: "p.tags", wantErr: true},
		{spec: ":t", wantErr: true},
		{spec: "p.tags:t:sideways", wantErr: true},
		{spec: "p.tags:t:left:eager", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := parseJoinSpec(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateCommand(t *testing.T) {
	dir := inModelDir(t)

	t.Run("summary", func(t *testing.T) {
		out, _, err := run(t, "validate")
		require.NoError(t, err)
		assert.Contains(t, out, "✓ model is valid")
		assert.Contains(t, out, "Entities:       8")
	})

	t.Run("list", func(t *testing.T) {
		out, _, err := run(t, "validate", "--list")
		require.NoError(t, err)
		assert.Contains(t, out, "Department.leads")
		assert.Contains(t, out, "Region (entity)")
		assert.Contains(t, out, "post_comments")
	})

	t.Run("broken model", func(t *testing.T) {
		broken := dir + "/broken.yml"
		content := "entities:\n  - name: Post\n    identifier: {name: id, type: uuid}\n    attributes:\n      - {name: author, kind: many_to_one, target: Ghost}\n"
		require.NoError(t, os.WriteFile(broken, []byte(content), 0644))

		_, _, err := run(t, "validate", "--model", broken)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Ghost")
	})

	t.Run("missing config file", func(t *testing.T) {
		_, _, err := run(t, "validate", "--config", dir+"/nope.yml")
		assert.Error(t, err)
	})
}
