package shell

import (
	"fmt"
	"strings"

	"github.com/N3moAhead/kinship/internal/db"
	"github.com/N3moAhead/kinship/internal/graph"
	"github.com/N3moAhead/kinship/internal/person"
	"github.com/N3moAhead/kinship/internal/relation"
	"github.com/N3moAhead/kinship/internal/stats"
	"github.com/spf13/cobra"
)

// rootCmd builds a fresh command tree for one line, so flag values never
// leak from one command into the next.
func (s *Shell) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(s.out)
	root.SetErr(s.out)
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		s.createCmd(),
		s.selectCmd(),
		s.removeCmd(),
		s.divorceCmd(),
		s.infoCmd(),
		s.listCmd(),
		s.traverseCmd(),
		s.loadCmd(),
		s.saveCmd(),
		&cobra.Command{
			Use:     "quit",
			Aliases: []string{"exit"},
			Short:   "Exit the shell",
			RunE:    func(cmd *cobra.Command, args []string) error { return ErrQuit },
		},
	)
	return root
}

func (s *Shell) createCmd() *cobra.Command {
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a graph, a person or a relation",
		Long: `Create a new object based on the given subcommand.
Warnings: Creating a new graph will discard the one currently being worked on.`,
	}

	create.AddCommand(&cobra.Command{
		Use:   "graph",
		Short: "Create a new, empty graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			// The new graph belongs to no file until it is saved.
			s.graph = graph.New()
			s.selected = ""
			s.path = ""
			s.success("New graph created.")
			return nil
		},
	})

	var gender, birthdate string
	node := &cobra.Command{
		Use:     "node <name>",
		Aliases: []string{"person"},
		Short:   "Create a person and select them",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.write(func(g *graph.Graph) error {
				if _, err := g.AddPerson(args[0], gender, birthdate); err != nil {
					return err
				}
				s.selected = args[0]
				s.success("%s created and selected.", args[0])
				return nil
			})
		},
	}
	node.Flags().StringVar(&gender, "gender", "", "gender of the person")
	node.Flags().StringVar(&birthdate, "birthdate", "", "birthdate of the person (DD-MM-YYYY)")
	create.AddCommand(node)

	create.AddCommand(&cobra.Command{
		Use:   "relation <parent|child|sibling|spouse|parents> <name> [name]",
		Short: "Relate the selected person to others",
		Long: `Establish a relationship between the selected person and the named ones.
  parent <name>          name is a parent of the selected person
  child <name>           name is a child of the selected person
  sibling <name>         name is a sibling of the selected person
  spouse <name>          name is married to the selected person
  parents <name> <name>  both are parents of the selected person`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := relation.ParseKind(args[0])
			if err != nil {
				return err
			}
			others := args[1:]
			if kind != relation.Parents && len(others) != 1 {
				return fmt.Errorf("%s takes exactly one name", kind)
			}
			return s.writeSelected(func(g *graph.Graph, selected string) error {
				switch kind {
				case relation.Parents:
					err = g.SetRelation(relation.Parents, selected, others...)
				case relation.Parent, relation.Child:
					err = g.SetRelation(kind, others[0], selected)
				default:
					err = g.SetRelation(kind, selected, others[0])
				}
				if err != nil {
					return err
				}
				if kind == relation.Parents {
					s.success("%s are now parents of %s.", strings.Join(others, " and "), selected)
				} else {
					s.success("%s is now a %s of %s.", others[0], kind, selected)
				}
				return nil
			})
		},
	})
	return create
}

func (s *Shell) selectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <name>",
		Short: "Select a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Selection is session state, so it takes the write lock.
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.graph == nil {
				return errNoGraph
			}
			if _, ok := s.graph.Person(args[0]); !ok {
				return fmt.Errorf("%s: %w", args[0], graph.ErrNotFound)
			}
			s.selected = args[0]
			s.success("%s is now the selected person.", args[0])
			return nil
		},
	}
}

func (s *Shell) removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove [name]",
		Short: "Remove a person (default: the selected one)",
		Long:  "Removes a person and all of their relations. This cannot be undone.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.write(func(g *graph.Graph) error {
				name := s.selected
				if len(args) == 1 {
					name = args[0]
				}
				if name == "" {
					return errNoSelected
				}
				if err := g.RemovePerson(name); err != nil {
					return err
				}
				if name == s.selected {
					s.selected = ""
				}
				s.success("%s has been removed.", name)
				return nil
			})
		},
	}
}

func (s *Shell) divorceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "divorce <name>",
		Short: "Divorce the selected person from a current spouse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.writeSelected(func(g *graph.Graph, selected string) error {
				if err := g.Divorce(selected, args[0]); err != nil {
					return err
				}
				s.success("%s and %s are divorced.", selected, args[0])
				return nil
			})
		},
	}
}

var relationSets = []string{"parents", "children", "siblings", "spouses", "previous_spouses"}

func relationLists(rec person.Record) map[string][]string {
	return map[string][]string{
		"parents":          rec.Parents,
		"children":         rec.Children,
		"siblings":         rec.Siblings,
		"spouses":          rec.Spouses,
		"previous_spouses": rec.PreviousSpouses,
	}
}

func (s *Shell) infoCmd() *cobra.Command {
	info := &cobra.Command{
		Use:   "info",
		Short: "Show or change information",
	}

	info.AddCommand(&cobra.Command{
		Use:   "all",
		Short: "Show every direct relation of the selected person",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.readSelected(func(g *graph.Graph, selected string) error {
				rec, err := g.Record(selected)
				if err != nil {
					return err
				}
				fmt.Fprintln(s.out, s.titleStyle.Render(selected))
				if rec.Gender != nil {
					s.printf("Gender: %s", *rec.Gender)
				}
				if rec.Birthdate != nil {
					s.printf("Birthdate: %s", *rec.Birthdate)
				}
				lists := relationLists(rec)
				for _, set := range relationSets {
					s.printf("The %s of %s are: %s", set, selected, formatNames(lists[set]))
				}
				return nil
			})
		},
	})

	var modifiers []string
	rel := &cobra.Command{
		Use:   "relation <type> [great...]",
		Short: "Find relatives of the selected person",
		Long: `Find a relation relative to the selected person.
Types: parents, children, siblings, spouses, previous_spouses, grandparents,
grandchildren, cousins. Each "great" modifier adds one generation to
grandparents and grandchildren.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := strings.ToLower(args[0])
			greats := 0
			for _, m := range append(args[1:], modifiers...) {
				if strings.EqualFold(m, "great") {
					greats++
				} else {
					return fmt.Errorf("unknown modifier %q", m)
				}
			}
			return s.readSelected(func(g *graph.Graph, selected string) error {
				return s.showRelation(g, selected, kind, greats)
			})
		},
	}
	rel.Flags().StringSliceVar(&modifiers, "modifiers", nil, "modifiers such as great,great")
	info.AddCommand(rel)

	info.AddCommand(&cobra.Command{
		Use:   "set <attribute> <value>",
		Short: "Set name, gender or birthdate of the selected person",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			attribute := strings.ToLower(args[0])
			return s.writeSelected(func(g *graph.Graph, selected string) error {
				if err := g.SetAttribute(selected, attribute, args[1]); err != nil {
					return err
				}
				if attribute == "name" {
					s.selected = args[1]
				}
				s.success("Updated %s %s to %s.", selected, attribute, args[1])
				return nil
			})
		},
	})

	var sorted bool
	birthdays := &cobra.Command{
		Use:   "birthdays",
		Short: "List birthdays",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.read(func(g *graph.Graph) error {
				if sorted {
					for _, group := range stats.BirthdayGroups(g) {
						s.printf("%s", group)
					}
					return nil
				}
				for _, b := range stats.Birthdays(g) {
					s.printf("%s", b)
				}
				return nil
			})
		},
	}
	birthdays.Flags().BoolVar(&sorted, "sorted", false, "group by day and month, in calendar order")
	info.AddCommand(birthdays)

	info.AddCommand(&cobra.Command{
		Use:       "average <children|age>",
		Short:     "Average number of children or age",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"children", "age"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.read(func(g *graph.Graph) error {
				if args[0] == "children" {
					avg, err := stats.AverageChildrenCount(g)
					if err != nil {
						return err
					}
					s.printf("Average number of children per person: %.2f", avg)
					return nil
				}
				avg, err := stats.AverageAge(g, s.today())
				if err != nil {
					return err
				}
				s.printf("Average age: %.2f", avg)
				return nil
			})
		},
	})
	return info
}

func (s *Shell) showRelation(g *graph.Graph, selected, kind string, greats int) error {
	var (
		names []string
		err   error
		label = kind
	)
	switch kind {
	case "parents", "children", "siblings", "spouses", "previous_spouses":
		if greats > 0 {
			return fmt.Errorf("%s takes no modifiers", kind)
		}
		var rec person.Record
		rec, err = g.Record(selected)
		if err != nil {
			return err
		}
		names = relationLists(rec)[kind]
	case "grandparents":
		names, err = g.Grandparents(selected, greats+2)
		label = strings.Repeat("great ", greats) + kind
	case "grandchildren":
		names, err = g.Grandchildren(selected, greats+2)
		label = strings.Repeat("great ", greats) + kind
	case "cousins":
		if greats > 0 {
			return fmt.Errorf("%s takes no modifiers", kind)
		}
		names, err = g.Cousins(selected)
	default:
		return fmt.Errorf("unknown or unsupported relation type: %s", kind)
	}
	if err != nil {
		return err
	}
	s.printf("The %s of %s are: %s", label, selected, formatNames(names))
	return nil
}

func (s *Shell) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List everyone in the graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.read(func(g *graph.Graph) error {
				for _, p := range g.People() {
					marker := "  "
					if p.Name == s.selected {
						marker = "* "
					}
					s.printf("%s%s %s", marker, p.Name, s.infoStyle.Render("("+p.Description()+")"))
				}
				return nil
			})
		},
	}
}

func (s *Shell) traverseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "traverse [name]",
		Short: "Walk the family from a person through children, spouses and siblings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.read(func(g *graph.Graph) error {
				start := s.selected
				if len(args) == 1 {
					start = args[0]
				}
				if start == "" {
					return errNoSelected
				}
				order, err := g.Traverse(start)
				if err != nil {
					return err
				}
				for _, name := range order {
					s.printf("Visiting: %s", name)
				}
				return nil
			})
		},
	}
}

func (s *Shell) loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Load a graph from a JSON file",
		Long:  "Loads a graph from the given file. Loading discards the graph currently being worked on.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.load(args[0])
		},
	}
}

func (s *Shell) saveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save [file]",
		Short: "Save the graph to a JSON file (default: the file it was loaded from)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Saving only reads the graph, but it records the path.
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.graph == nil {
				return errNoGraph
			}
			path := s.path
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				path = s.cfg.DataFile
			}
			if err := db.Save(s.graph, path, s.logger); err != nil {
				return err
			}
			s.path = path
			s.success("Family graph saved to %s.", path)
			return nil
		},
	}
}

func formatNames(names []string) string {
	if len(names) == 0 {
		return "nobody"
	}
	return strings.Join(names, ", ")
}
