package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/querymodel/internal/cli/ui"
	"github.com/conduit-lang/querymodel/internal/orm/path"
	"github.com/conduit-lang/querymodel/internal/orm/planner"
	"github.com/conduit-lang/querymodel/internal/orm/queryspace"
	"github.com/conduit-lang/querymodel/internal/orm/schema"
)

type resolveOptions struct {
	from      []string
	joins     []string
	selection bool
}

// NewResolveCommand creates the resolve command
func NewResolveCommand() *cobra.Command {
	var opts resolveOptions

	cmd := &cobra.Command{
		Use:   "resolve <path>...",
		Short: "Resolve paths against a from clause",
		Long: `Resolve dotted paths the way a query would and print the bindings and
the resulting query-space graph.

Roots are declared with --from Entity[:alias]. Explicit joins are declared
with --join path:alias[:type[:fetch]], where type is inner, left, right or
full. Paths resolve in restriction context unless --select is given.`,
		Example: `  # Implicit join through a many-to-one
  querymodel resolve --from Post:p p.author.name

  # Explicit left join of a collection, then navigate from its alias
  querymodel resolve --from Post:p --join p.comments:c:left c.author.name

  # Selection context joins selected associations
  querymodel resolve --from Post:p --select p.author`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			defer env.close()

			return runResolve(cmd.OutOrStdout(), env.planner, args, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.from, "from", nil, "Root entity as Entity[:alias] (repeatable)")
	cmd.Flags().StringArrayVar(&opts.joins, "join", nil, "Explicit join as path:alias[:type[:fetch]] (repeatable)")
	cmd.Flags().BoolVar(&opts.selection, "select", false, "Resolve in selection context")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

func runResolve(out io.Writer, p *planner.Planner, paths []string, opts resolveOptions) error {
	q := p.NewQuery()

	for _, spec := range opts.from {
		entity, alias, _ := strings.Cut(spec, ":")
		if _, err := q.From(entity, alias); err != nil {
			return err
		}
	}

	for _, spec := range opts.joins {
		j, err := parseJoinSpec(spec)
		if err != nil {
			return err
		}
		if _, err := q.Join(j.path, j.alias, j.joinType, j.fetched); err != nil {
			return err
		}
	}

	table := ui.NewTable(out, []string{"Path", "Type", "Joined", "Space"}, &ui.TableOptions{NoColor: noColor})
	for _, expr := range paths {
		var b *path.Binding
		var err error
		if opts.selection {
			b, err = q.Select(expr)
		} else {
			b, err = q.Resolve(expr)
		}
		if err != nil {
			return err
		}
		table.AddRow(describeBinding(b)...)
	}
	table.Render()

	fmt.Fprintln(out)
	ui.Header(out, "Query spaces", noColor)
	fmt.Fprint(out, q.Spaces().Describe())
	return nil
}

type joinSpec struct {
	path     string
	alias    string
	joinType queryspace.JoinType
	fetched  bool
}

func parseJoinSpec(spec string) (joinSpec, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 4 || parts[0] == "" || parts[1] == "" {
		return joinSpec{}, fmt.Errorf("invalid join %q, expected path:alias[:type[:fetch]]", spec)
	}

	j := joinSpec{path: parts[0], alias: parts[1], joinType: queryspace.InnerJoin}
	if len(parts) > 2 && parts[2] != "" {
		jt, err := queryspace.ParseJoinType(parts[2])
		if err != nil {
			return joinSpec{}, fmt.Errorf("invalid join %q: %w", spec, err)
		}
		j.joinType = jt
	}
	if len(parts) > 3 {
		if parts[3] != "fetch" {
			return joinSpec{}, fmt.Errorf("invalid join %q: expected \"fetch\", got %q", spec, parts[3])
		}
		j.fetched = true
	}
	return j, nil
}

// describeBinding returns the path, type, join and space columns
func describeBinding(b *path.Binding) []string {
	typ := "-"
	if mt, ok := b.ManagedType(); ok {
		typ = mt.String()
	} else if attr := b.Attribute(); attr != nil {
		typ = attr.Kind.String()
		if attr.Kind == schema.KindBasic {
			typ = attr.Type.String()
		}
	}

	joined, space := "no", "-"
	if fe, ok := b.FromElement(); ok {
		joined = "yes"
		if j := fe.Join(); j != nil {
			joined = j.Type.String()
		}
		space = fe.Space().UID()
	}
	return []string{b.String(), typ, joined, space}
}
