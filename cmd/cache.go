package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/rubiojr/reposearch/pkg/cache"
	"github.com/urfave/cli/v3"
)

var summaryStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("32")).
	Border(lipgloss.ThickBorder()).
	BorderForeground(lipgloss.Color("32")).
	Padding(0, 1).
	Margin(0, 0, 1, 0)

// CacheCommand creates the cache command and its subcommands
func CacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the page cache",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cached page count and size",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(ctx, c.String("config"), func(store cache.AdminStore) error {
						stats, err := store.Stats(ctx)
						if err != nil {
							return fmt.Errorf("reading cache stats: %w", err)
						}
						fmt.Println(summaryStyle.Render(fmt.Sprintf("%s cache: %d pages, %s", stats.Driver, stats.Entries, formatBytes(stats.Bytes))))
						return nil
					})
				},
			},
			{
				Name:  "purge",
				Usage: "Remove every cached page",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withStore(ctx, c.String("config"), func(store cache.AdminStore) error {
						n, err := store.Purge(ctx)
						if err != nil {
							return fmt.Errorf("purging cache: %w", err)
						}
						fmt.Printf("Removed %d cached pages\n", n)
						return nil
					})
				},
			},
		},
	}
}

// withStore opens the configured store without building catalog clients,
// so the cache can be managed while the catalog is unreachable.
func withStore(ctx context.Context, configPath string, fn func(cache.AdminStore) error) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	store, err := cache.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
