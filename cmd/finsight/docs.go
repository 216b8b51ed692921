package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Veraticus/finsight/internal/cli"
	"github.com/Veraticus/finsight/internal/content"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// withLibrary adapts a command body that only needs the embedded content.
func withLibrary(run func(cmd *cobra.Command, args []string, lib *content.Library) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		lib, err := content.Default()
		if err != nil {
			return err
		}
		return run(cmd, args, lib)
	}
}

func docsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Browse the documentation hub",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List guides",
		Args:  cobra.NoArgs,
		RunE: withLibrary(func(cmd *cobra.Command, _ []string, lib *content.Library) error {
			return render(cmd, lib.Hub, func(w io.Writer) error {
				rows := make([][]string, 0, len(lib.Hub.Pages))
				for _, p := range lib.Hub.Pages {
					rows = append(rows, []string{p.Slug, p.Title, p.Description})
				}
				_, err := fmt.Fprintf(w, "%s\n%s\n", cli.FormatTitle(lib.Hub.Title),
					cli.Table([]string{"Guide", "Title", "Description"}, rows, nil))
				return err
			})
		}),
	}

	show := &cobra.Command{
		Use:   "show SLUG",
		Short: "Show one guide",
		Args:  cobra.ExactArgs(1),
		RunE: withLibrary(func(cmd *cobra.Command, args []string, lib *content.Library) error {
			page, err := lib.Page(args[0])
			if err != nil {
				return fmt.Errorf("%w (available: %s)", err, strings.Join(lib.Slugs(), ", "))
			}
			return render(cmd, page, func(w io.Writer) error { return printPage(w, page) })
		}),
	}

	search := &cobra.Command{
		Use:   "search PATTERN",
		Short: "Search guides, issues, endpoints and features",
		Long:  "Search with a case-insensitive regular expression.",
		Args:  cobra.ExactArgs(1),
		RunE: withLibrary(func(cmd *cobra.Command, args []string, lib *content.Library) error {
			hits, err := lib.Search(args[0])
			if err != nil {
				return err
			}
			return render(cmd, hits, func(w io.Writer) error {
				if len(hits) == 0 {
					_, err := fmt.Fprintln(w, cli.FormatInfo("No matches."))
					return err
				}
				rows := make([][]string, 0, len(hits))
				for _, h := range hits {
					rows = append(rows, []string{h.Kind, h.Ref, h.Title})
				}
				_, err := fmt.Fprintln(w, cli.Table([]string{"Kind", "Ref", "Title"}, rows, nil))
				return err
			})
		}),
	}

	troubleshoot := &cobra.Command{
		Use:   "troubleshoot [PATTERN]",
		Short: "Known issues and their fixes",
		Args:  cobra.MaximumNArgs(1),
		RunE: withLibrary(func(cmd *cobra.Command, args []string, lib *content.Library) error {
			category, _ := cmd.Flags().GetString("category")
			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}
			issues, err := lib.Issues(category, pattern)
			if err != nil {
				return err
			}
			return render(cmd, issues, func(w io.Writer) error { return printIssues(w, issues) })
		}),
	}
	troubleshoot.Flags().String("category", "", "only issues in this category (api, models, database, performance, ...)")

	changelog := &cobra.Command{
		Use:   "changelog",
		Short: "Release history",
		Args:  cobra.NoArgs,
		RunE: withLibrary(func(cmd *cobra.Command, _ []string, lib *content.Library) error {
			return render(cmd, lib.Changelog, func(w io.Writer) error {
				for _, r := range lib.Changelog {
					if _, err := fmt.Fprintf(w, "%s\n%s\n", cli.FormatTitle(fmt.Sprintf("%s (%s, %s)", r.Version, r.Date, r.Type)), r.Title); err != nil {
						return err
					}
					for _, c := range r.Changes {
						if _, err := fmt.Fprintf(w, "  [%s] %s\n", c.Type, c.Title); err != nil {
							return err
						}
					}
					if _, err := fmt.Fprintln(w); err != nil {
						return err
					}
				}
				return nil
			})
		}),
	}

	cmd.AddCommand(list, show, search, troubleshoot, changelog)
	return cmd
}

func printPage(w io.Writer, page content.Page) error {
	var b strings.Builder
	b.WriteString(cli.FormatTitle(page.Title) + "\n")
	if page.Description != "" {
		b.WriteString(cli.SubtitleStyle.Render(page.Description) + "\n\n")
	}
	for _, s := range page.Sections {
		b.WriteString(cli.BoldStyle.Render(s.Heading) + "\n")
		if s.Body != "" {
			b.WriteString(strings.TrimSpace(s.Body) + "\n")
		}
		for _, c := range s.Commands {
			b.WriteString("  $ " + c + "\n")
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func printIssues(w io.Writer, issues []content.Issue) error {
	if len(issues) == 0 {
		_, err := fmt.Fprintln(w, cli.FormatInfo("No matching issues."))
		return err
	}
	for _, issue := range issues {
		var b strings.Builder
		b.WriteString(cli.RiskStyle(issue.Severity).Render(strings.ToUpper(issue.Severity)) + " " + issue.Category + "\n")
		b.WriteString(issue.Problem + "\n")
		for _, s := range issue.Symptoms {
			b.WriteString("  • " + s + "\n")
		}
		for i, s := range issue.Solutions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s.Step)
			if s.Command != "" {
				b.WriteString("   $ " + s.Command + "\n")
			}
		}
		if _, err := fmt.Fprintln(w, cli.RenderBox(fmt.Sprintf("#%d %s", issue.ID, issue.Title), strings.TrimRight(b.String(), "\n"))); err != nil {
			return err
		}
	}
	return nil
}

func navigationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "navigation",
		Short: "Show the dashboard sidebar",
		Args:  cobra.NoArgs,
		RunE: withLibrary(func(cmd *cobra.Command, _ []string, lib *content.Library) error {
			nav := lib.Navigation
			return render(cmd, nav, func(w io.Writer) error {
				var b strings.Builder
				fmt.Fprintf(&b, "%s %s\n%s\n", nav.Brand.Icon, cli.BoldStyle.Render(nav.Brand.Name), cli.SubtleStyle.Render(nav.Brand.Subtitle))
				for _, s := range nav.Sections {
					b.WriteString("\n" + cli.TitleStyle.UnsetMargins().Render(s.Title) + "\n")
					for _, item := range s.Items {
						fmt.Fprintf(&b, "  %s %-24s %s\n", item.Icon, item.Name, cli.SubtleStyle.Render(navCommand(item.Key)))
					}
				}
				_, err := io.WriteString(w, b.String())
				return err
			})
		}),
	}
}

// navCommand is the CLI equivalent of a sidebar entry.
func navCommand(key string) string {
	if key == "docs" {
		return "finsight docs list"
	}
	return "finsight dashboard " + key
}

func gendocsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "gendocs DIR",
		Short:  "Generate markdown reference for every command",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
			root := cmd.Root()
			root.DisableAutoGenTag = true
			if err := doc.GenMarkdownTree(root, dir); err != nil {
				return fmt.Errorf("failed to generate docs: %w", err)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Wrote command reference to "+dir))
			return err
		},
	}
	return cmd
}
