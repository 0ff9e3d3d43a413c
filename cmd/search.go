package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rubiojr/reposearch/pkg/core"
	"github.com/rubiojr/reposearch/pkg/search"
	"github.com/urfave/cli/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	itemStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Margin(0, 0, 1, 2)

	catalogStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)
)

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search services and resources",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "text",
				Aliases: []string{"q"},
				Usage:   "Free text forwarded to both catalogs",
			},
			&cli.StringSliceFlag{
				Name:  "tags",
				Usage: "Category tag ids every result must carry (repeatable or comma separated)",
			},
			&cli.IntFlag{
				Name:  "page",
				Usage: "Output page number",
				Value: 1,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the page as JSON",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			values := url.Values{}
			values.Set("text", c.String("text"))
			values.Set("page", strconv.Itoa(int(c.Int("page"))))
			for _, tag := range c.StringSlice("tags") {
				values.Add("tags", tag)
			}
			q, err := search.ParseQuery(values)
			if err != nil {
				return err
			}
			return runSearch(ctx, c.String("config"), q, c.Bool("json"))
		},
	}
}

func runSearch(ctx context.Context, configPath string, q core.Query, asJSON bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	e, err := newEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	page, err := e.resolver.Resolve(ctx, q)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}

	fmt.Print(renderPage(q, page))
	return nil
}

func renderPage(q core.Query, page *core.CombinedPage) string {
	var out strings.Builder

	title := fmt.Sprintf("Page %d", q.Page)
	if q.Text != "" {
		title += fmt.Sprintf(" for %q", q.Text)
	}
	if len(q.Tags) > 0 {
		title += " tagged " + q.Tags.String()
	}
	out.WriteString(titleStyle.Render(title))
	out.WriteString("\n")

	if len(page.Items) == 0 {
		out.WriteString(noDataStyle.Render("No results found"))
		out.WriteString("\n")
		return out.String()
	}

	caser := cases.Title(language.English)
	for _, item := range page.Items {
		var content strings.Builder
		content.WriteString(catalogStyle.Render(caser.String(item.Catalog.String())))
		content.WriteString(" " + item.ID)
		if len(item.CategoryTags) > 0 {
			content.WriteString("\n" + metaStyle.Render("tags: "+strings.Join(item.CategoryTags, ", ")))
		}
		content.WriteString(core.FormatFields(item.Fields))
		out.WriteString(itemStyle.Render(content.String()))
		out.WriteString("\n")
	}

	footer := fmt.Sprintf("%d results, services page %d, resources page %d", len(page.Items), page.ServicePage, page.ResourcePage)
	if page.IsLastPage {
		footer += ", last page"
	}
	out.WriteString(metaStyle.Render(footer))
	out.WriteString("\n")
	return out.String()
}
