package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/querymodel/internal/cli/ui"
	"github.com/conduit-lang/querymodel/internal/orm/loadplan"
	"github.com/conduit-lang/querymodel/internal/orm/planner"
)

type planOptions struct {
	collection bool
	profile    string
	summary    bool
}

// NewPlanCommand creates the plan command
func NewPlanCommand() *cobra.Command {
	var opts planOptions

	cmd := &cobra.Command{
		Use:   "plan <Entity|Role>",
		Short: "Build the load plan of an entity or collection",
		Long: `Build and print the load plan of an entity, or of a collection role
with --collection.

Every fetch shows its target, the strategy it ended up with and its depth.
Fetches whose configured join was turned into a select carry the reason:
max_depth, collection_limit, circular or not_joinable.`,
		Example: `  # Plan loading a Post
  querymodel plan Post

  # Plan a collection by role
  querymodel plan Department.leads --collection

  # Apply a fetch profile declared in the model
  querymodel plan Post --profile with-attachments --summary`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			defer env.close()

			return runPlan(cmd.OutOrStdout(), cmd.ErrOrStderr(), env.planner, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.collection, "collection", false, "Treat the argument as a collection role")
	cmd.Flags().StringVar(&opts.profile, "profile", "", "Fetch profile to apply")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "Print plan counters after the tree")

	return cmd
}

func runPlan(out, errOut io.Writer, p *planner.Planner, name string, opts planOptions) error {
	registry := p.Registry()

	var profile loadplan.FetchProfile
	if opts.profile != "" {
		if _, ok := registry.FetchProfile(opts.profile); !ok {
			fmt.Fprint(errOut, ui.NameNotFoundError("fetch profile", opts.profile, registry.FetchProfileNames(), noColor))
			return errReported
		}
		var err error
		if profile, err = p.Profile(opts.profile); err != nil {
			return err
		}
	}

	var plan *loadplan.LoadPlan
	var err error
	if opts.collection {
		if _, ok := registry.Collection(name); !ok {
			fmt.Fprint(errOut, ui.NameNotFoundError("collection", name, registry.CollectionRoles(), noColor))
			return errReported
		}
		plan, err = p.CollectionLoadPlan(name, profile)
	} else {
		if _, ok := registry.Entity(name); !ok {
			fmt.Fprint(errOut, ui.NameNotFoundError("entity", name, registry.EntityNames(), noColor))
			return errReported
		}
		plan, err = p.EntityLoadPlan(name, profile)
	}
	if err != nil {
		return err
	}

	ui.WritePlan(out, plan, noColor)
	if opts.summary {
		fmt.Fprintln(out)
		ui.WritePlanSummary(out, plan, noColor)
	}
	return nil
}
