package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/querymodel/internal/cli/ui"
	"github.com/conduit-lang/querymodel/internal/orm/schema"
)

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the model file",
		Long: `Load the model file, check every cross reference and print a summary.

Validation fails on unknown targets, supertype cycles, composites that embed
themselves and collections reachable from an identifier.`,
		Example: `  # Validate the model named in querymodel.yml
  querymodel validate

  # Validate another file and list its entities and collections
  querymodel validate --model blog.yml --list`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			defer env.close()

			writeModelReport(cmd.OutOrStdout(), env.registry, list)
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List entities and collections")

	return cmd
}

func writeModelReport(out io.Writer, registry *schema.Registry, list bool) {
	ui.WriteSuccess(out, "model is valid", noColor)
	fmt.Fprintln(out)

	stats := registry.GetStats()
	kv := ui.NewKeyValueTable(out, noColor)
	kv.AddRow("Entities", fmt.Sprintf("%d", stats.TotalEntities))
	kv.AddRow("Composites", fmt.Sprintf("%d", stats.TotalComposites))
	kv.AddRow("Collections", fmt.Sprintf("%d", stats.TotalCollections))
	kv.AddRow("Attributes", fmt.Sprintf("%d", stats.TotalAttributes))
	kv.AddRow("Associations", fmt.Sprintf("%d", stats.Associations))
	kv.AddRow("Fetch profiles", fmt.Sprintf("%d", stats.TotalProfiles))
	kv.Render()

	if !list {
		return
	}

	fmt.Fprintln(out)
	ui.Header(out, "Entities", noColor)
	entities := ui.NewTable(out, []string{"Entity", "Table", "Supertype", "Identifier", "Associations"}, &ui.TableOptions{NoColor: noColor})
	for _, name := range registry.EntityNames() {
		e, _ := registry.Entity(name)
		id := "-"
		if identifier, ok := registry.EntityIdentifier(name); ok {
			id = identifier.Name()
		}
		var assocs []string
		for _, attr := range registry.EntityAttributes(name) {
			if attr.Kind.IsAssociation() {
				assocs = append(assocs, attr.Name)
			}
		}
		entities.AddRow(name, e.TableName, orDash(e.Supertype), id, orDash(strings.Join(assocs, ", ")))
	}
	entities.Render()

	fmt.Fprintln(out)
	ui.Header(out, "Collections", noColor)
	collections := ui.NewTable(out, []string{"Role", "Table", "Element", "Index"}, &ui.TableOptions{NoColor: noColor})
	for _, role := range registry.CollectionRoles() {
		c, _ := registry.Collection(role)
		index := "-"
		if c.Index != nil {
			index = describeElement(*c.Index)
		}
		collections.AddRow(role, c.TableName, describeElement(c.Element), index)
	}
	collections.Render()
}

func describeElement(d schema.ElementDescriptor) string {
	if d.Kind == schema.ElementBasic {
		return d.Type.String()
	}
	return fmt.Sprintf("%s (%s)", d.Target, d.Kind)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
