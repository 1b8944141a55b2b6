package cli

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/sadopc/cmdvault/internal/bundle"
	"github.com/sadopc/cmdvault/internal/command"
	"github.com/sadopc/cmdvault/internal/runner"
	"github.com/sadopc/cmdvault/internal/store"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func (a *app) listCmd() *cobra.Command {
	var projectRef string
	var tagNames []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List commands, optionally filtered by project and tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var f command.Filter
			if projectRef != "" {
				p, err := resolveProject(a.store, projectRef)
				if err != nil {
					return err
				}
				f = f.ForProject(p.ID)
			}
			if len(tagNames) > 0 {
				ids, err := a.store.TagIDs(tagNames...)
				if err != nil {
					return err
				}
				f = f.WithTags(ids...)
			}

			cmds, err := a.store.ListCommands(f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(cmds) == 0 {
				fmt.Fprintln(out, "No commands. Add one with 'cmdvault add <file.json>' or import a bundle.")
				return nil
			}
			names, err := projectNames(a.store)
			if err != nil {
				return err
			}

			headerColor.Fprintf(out, "%-5s %-28s %-20s %s\n", "ID", "NAME", "PROJECTS", "TAGS")
			for _, c := range cmds {
				fmt.Fprintf(out, "%-5d %-28s %-20s %s\n",
					c.ID,
					truncate(c.Name, 28),
					truncate(joinProjects(c.ProjectIDs, names), 20),
					strings.Join(c.Tags, ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&projectRef, "project", "p", "", "project id, code-index or name (global commands always match)")
	cmd.Flags().StringSliceVarP(&tagNames, "tag", "t", nil, "tag name; repeat to match any of several")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <command>",
		Short: "Show a command with its steps and variables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := resolveCommand(a.store, args[0])
			if err != nil {
				return err
			}
			names, err := projectNames(a.store)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			headerColor.Fprintln(out, c.Name)
			fmt.Fprintf(out, "  ID:        %d\n", c.ID)
			fmt.Fprintf(out, "  Code:      %s\n", orDash(c.CodeIndex))
			fmt.Fprintf(out, "  Summary:   %s\n", orDash(c.Summary))
			fmt.Fprintf(out, "  Detail:    %s\n", orDash(c.Detail))
			fmt.Fprintf(out, "  Projects:  %s\n", joinProjects(c.ProjectIDs, names))
			fmt.Fprintf(out, "  Tags:      %s\n", orDash(strings.Join(c.Tags, ", ")))

			for i, st := range c.Steps {
				fmt.Fprintln(out)
				headerColor.Fprintf(out, "Step %d", i)
				if st.Name != "" {
					fmt.Fprintf(out, ": %s", st.Name)
				}
				fmt.Fprintln(out)
				if st.Detail != "" {
					mutedColor.Fprintf(out, "  %s\n", st.Detail)
				}
				fmt.Fprintf(out, "  $ %s\n", st.Command)
				for _, v := range st.Variables {
					typ := string(v.Type)
					if typ == "" {
						typ = string(command.TypeString)
					}
					line := fmt.Sprintf("  - %s (%s", v.Name, typ)
					if v.Format != command.FormatNone {
						line += ", " + string(v.Format)
					}
					line += ")"
					if len(v.Options) > 0 {
						line += " [" + strings.Join(v.Options, "|") + "]"
					}
					if v.Detail != "" {
						line += "  " + v.Detail
					}
					fmt.Fprintln(out, line)
				}
				for _, name := range command.Unresolved(st.Command, st.Variables) {
					printWarn(out, "placeholder {{%s}} has no variable", name)
				}
			}
			return nil
		},
	}
}

// stepFlags are shared by render and run.
type stepFlags struct {
	step   int
	values []string
}

func (f *stepFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.step, "step", 0, "step index to use")
	cmd.Flags().StringArrayVarP(&f.values, "set", "s", nil, "variable value as name=value; repeatable")
}

func (a *app) prepare(ref string, f stepFlags) (*runner.Prepared, command.Values, error) {
	c, err := resolveCommand(a.store, ref)
	if err != nil {
		return nil, nil, err
	}
	values, err := parseValues(f.values)
	if err != nil {
		return nil, nil, err
	}
	p, err := a.runner().Prepare(c, f.step, values)
	return p, values, err
}

func (a *app) renderCmd() *cobra.Command {
	var f stepFlags
	cmd := &cobra.Command{
		Use:   "render <command>",
		Short: "Print a command with its variables substituted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := a.prepare(args[0], f)
			if err != nil {
				return err
			}
			errOut := cmd.ErrOrStderr()
			for _, name := range p.Missing {
				printWarn(errOut, "%s has no value", name)
			}
			for _, name := range slices.Sorted(maps.Keys(p.Invalid)) {
				printWarn(errOut, "%s: %s", name, p.Invalid[name])
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.Rendered)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) runCmd() *cobra.Command {
	var f stepFlags
	var dir, projectRef, override string

	cmd := &cobra.Command{
		Use:   "run <command>",
		Short: "Render a command and run it",
		Long: `Render a command and run it. The working directory is --dir, else the
path of --project, else the path of the command's first project, else the
current directory. --command replaces the rendered text entirely.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, values, err := a.prepare(args[0], f)
			if err != nil {
				return err
			}
			// Format mismatches are converted on render; a value of the
			// wrong type is refused. An override is only syntax-checked.
			if strings.TrimSpace(override) != "" {
				if err := a.exec.Check(override); err != nil {
					return fmt.Errorf("--command: %w", err)
				}
			} else if err := command.ValidateValues(p.Step().Variables, values); err != nil {
				return err
			}
			workDir, err := a.workDir(p.Command, dir, projectRef)
			if err != nil {
				return err
			}

			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			text := p.Rendered
			if strings.TrimSpace(override) != "" {
				text = override
			}
			headerColor.Fprintf(errOut, "$ %s\n", text)
			if workDir != "" {
				mutedColor.Fprintf(errOut, "  in %s\n", workDir)
			}

			run, res, err := a.runner().Execute(cmd.Context(), p, override, workDir)
			if errors.Is(err, runner.ErrMissingValues) {
				return fmt.Errorf("%w (pass them with --set name=value)", err)
			}
			fmt.Fprint(out, res.Stdout)
			fmt.Fprint(errOut, res.Stderr)
			if err != nil {
				return err
			}
			if !res.OK {
				return fmt.Errorf("%s failed: %s", p.Command.Name, res.Error)
			}
			printOK(errOut, "done in %s (run %s)", res.Duration.Round(time.Millisecond), run.ID[:8])
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&dir, "dir", "C", "", "working directory")
	cmd.Flags().StringVarP(&projectRef, "project", "p", "", "run in this project's path")
	cmd.Flags().StringVar(&override, "command", "", "run this text instead of the rendered command")
	return cmd
}

func (a *app) workDir(c *store.Command, dir, projectRef string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	if projectRef != "" {
		p, err := resolveProject(a.store, projectRef)
		if err != nil {
			return "", err
		}
		if p.Path == "" {
			return "", fmt.Errorf("project %q has no path", p.Name)
		}
		return p.Path, nil
	}
	dirs, err := a.runner().WorkDirs(c)
	if err != nil {
		return "", err
	}
	if len(dirs) > 0 {
		return dirs[0].Path, nil
	}
	return "", nil
}

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <file.json>",
		Short: "Create or update a command from a JSON document",
		Long: `Create a command from a JSON document shaped like one entry of an export
bundle's "commands" list. A document with a codeindex updates the command
that already has it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := afero.ReadFile(a.fs, args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			doc, err := bundle.ParseCommand(data)
			if err != nil {
				return err
			}
			c := bundle.ToStore(a.store, *doc)

			var saved *store.Command
			if c.CodeIndex != "" {
				saved, err = a.store.UpsertCommandByCodeIndex(c)
			} else {
				saved, err = a.store.CreateCommand(c)
			}
			if err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "saved %q (id %d)", saved.Name, saved.ID)
			return nil
		},
	}
}

func (a *app) editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <command> <file.json>",
		Short: "Replace a command with the contents of a JSON document",
		Long: `Replace the named command with a JSON document in the same shape as
'add' takes. Every field and the project and tag sets are replaced; a
document without a codeindex keeps the command's current one.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			existing, err := resolveCommand(a.store, args[0])
			if err != nil {
				return err
			}
			data, err := afero.ReadFile(a.fs, args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}
			doc, err := bundle.ParseCommand(data)
			if err != nil {
				return err
			}
			c := bundle.ToStore(a.store, *doc)
			c.ID = existing.ID
			if c.CodeIndex == "" {
				c.CodeIndex = existing.CodeIndex
			}
			if err := a.store.UpdateCommand(c); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "updated %q (id %d)", c.Name, c.ID)
			return nil
		},
	}
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <command>",
		Short: "Delete a command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := resolveCommand(a.store, args[0])
			if err != nil {
				return err
			}
			if err := a.store.DeleteCommand(c.ID); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "deleted %q", c.Name)
			return nil
		},
	}
}
