package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := a.store.ListProjects()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(out, "No projects.")
				return nil
			}
			headerColor.Fprintf(out, "%-5s %-16s %-24s %s\n", "ID", "CODE", "NAME", "PATH")
			for _, p := range projects {
				fmt.Fprintf(out, "%-5d %-16s %-24s %s\n", p.ID, orDash(p.CodeIndex), truncate(p.Name, 24), orDash(p.Path))
			}
			return nil
		},
	}

	var code, path string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.store.CreateProject(code, args[0], path)
			if err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "created project %q (id %d)", p.Name, p.ID)
			return nil
		},
	}
	add.Flags().StringVar(&code, "code", "", "code-index used to match the project on import")
	add.Flags().StringVar(&path, "path", "", "working directory for the project's commands")

	var newName, newCode, newPath string
	edit := &cobra.Command{
		Use:   "edit <project>",
		Short: "Change a project's name, code-index or path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveProject(a.store, args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				p.Name = newName
			}
			if flags.Changed("code") {
				p.CodeIndex = newCode
			}
			if flags.Changed("path") {
				p.Path = newPath
			}
			if err := a.store.UpdateProject(p.ID, p.CodeIndex, p.Name, p.Path); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "updated project %q", p.Name)
			return nil
		},
	}
	edit.Flags().StringVar(&newName, "name", "", "new name")
	edit.Flags().StringVar(&newCode, "code", "", "new code-index (empty clears it)")
	edit.Flags().StringVar(&newPath, "path", "", "new path (empty clears it)")

	rm := &cobra.Command{
		Use:   "rm <project>",
		Short: "Delete a project; its commands lose the association",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveProject(a.store, args[0])
			if err != nil {
				return err
			}
			if err := a.store.DeleteProject(p.ID); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "deleted project %q", p.Name)
			return nil
		},
	}

	cmd.AddCommand(list, add, edit, rm)
	return cmd
}

func (a *app) tagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List tags with the number of commands using each",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := a.store.CommandCountsByTag()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(counts) == 0 {
				fmt.Fprintln(out, "No tags.")
				return nil
			}
			headerColor.Fprintf(out, "%-5s %-16s %-24s %s\n", "ID", "CODE", "NAME", "COMMANDS")
			for _, c := range counts {
				fmt.Fprintf(out, "%-5d %-16s %-24s %d\n", c.Tag.ID, orDash(c.Tag.CodeIndex), truncate(c.Tag.Name, 24), c.Commands)
			}
			return nil
		},
	}

	var code string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.store.CreateTag(code, args[0])
			if err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "created tag %q (id %d)", t.Name, t.ID)
			return nil
		},
	}
	add.Flags().StringVar(&code, "code", "", "code-index")

	rename := &cobra.Command{
		Use:   "rename <tag> <new-name>",
		Short: "Rename a tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := resolveTag(a.store, args[0])
			if err != nil {
				return err
			}
			if err := a.store.UpdateTag(t.ID, t.CodeIndex, args[1]); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "renamed tag %q to %q", t.Name, args[1])
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <tag>",
		Short: "Delete a tag and remove it from every command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := resolveTag(a.store, args[0])
			if err != nil {
				return err
			}
			if err := a.store.DeleteTag(t.ID); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "deleted tag %q", t.Name)
			return nil
		},
	}

	cmd.AddCommand(list, add, rename, rm)
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and change stored settings",
	}

	get := &cobra.Command{
		Use:   "get [key]",
		Short: "Print one setting, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				v, err := a.store.GetSetting(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, v)
				return nil
			}
			settings, err := a.store.GetAllSettings()
			if err != nil {
				return err
			}
			for _, s := range settings {
				fmt.Fprintf(out, "%s=%s\n", s.Key, s.Value)
			}
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.SetSetting(args[0], args[1]); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "%s=%s", args[0], args[1])
			return nil
		},
	}

	cmd.AddCommand(get, set)
	return cmd
}
