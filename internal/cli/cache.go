package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/geoscore/internal/cache"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or empty the score and page cache",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show cache location and entry counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, dir, err := openCache()
		if err != nil {
			return err
		}

		u, err := c.Usage()
		if err != nil {
			return fmt.Errorf("read cache: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Cache directory: %s\n", dir)
		kinds := make([]string, 0, len(u.Entries))
		for k := range u.Entries {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(out, "  %-8s %d entries\n", k, u.Entries[cache.Kind(k)])
		}
		fmt.Fprintf(out, "  expired  %d entries\n", u.Expired)
		fmt.Fprintf(out, "  size     %.1f KB\n", float64(u.Bytes)/1024)
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := openCache()
		if err != nil {
			return err
		}
		removed, err := c.Prune()
		if err != nil {
			return fmt.Errorf("prune cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %d expired entries\n", removed)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cache entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, dir, err := openCache()
		if err != nil {
			return err
		}
		if err := c.Clear(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared %s\n", dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func openCache() (*cache.LayeredCache, string, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, "", err
	}
	if cfg.Cache.Dir == "" {
		return nil, "", fmt.Errorf("cache.dir is not set; the cache lives in memory only")
	}
	c := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.MaxEntries, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	return c, cfg.Cache.Dir, nil
}
