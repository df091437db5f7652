package cmd

import (
	"fmt"
	"time"

	"github.com/msalah0e/depviz/internal/cache"
	"github.com/msalah0e/depviz/internal/ui"
	"github.com/spf13/cobra"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the relationships payload cache",
	}

	cmd.AddCommand(
		cacheInfoCmd(),
		cacheClearCmd(),
	)

	return cmd
}

func cacheInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cache location and size",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := loadConfig()
			if err != nil {
				fatal("Config: %v", err)
			}
			n, total := cache.New(cache.Dir(), 0).Size()

			ttl := "disabled"
			if cfg.Source.CacheTTL > 0 {
				ttl = cfg.Source.CacheDuration().String()
			}
			ui.KeyValue([][2]string{
				{"Directory", cache.Dir()},
				{"Entries", fmt.Sprint(n)},
				{"Size", formatBytes(total)},
				{"TTL", ttl},
			})
		},
	}
}

func cacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached payload",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			start := time.Now()
			n, err := cache.New(cache.Dir(), 0).Clear()
			if err != nil {
				fatal("Clear failed: %v", err)
			}
			ui.Good.Printf("  %s Removed %d entries %s\n", ui.StatusIcon(true), n,
				ui.Subtle.Sprintf("(%s)", time.Since(start).Round(time.Millisecond)))
		},
	}
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
