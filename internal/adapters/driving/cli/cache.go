package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the answer cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove expired cached answers",
	RunE:  runCachePurge,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached answers",
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCachePurge(cmd *cobra.Command, _ []string) error {
	if responseCache == nil {
		return errors.New("cache not configured")
	}

	purged, err := responseCache.PurgeExpired(context.Background())
	if err != nil {
		return fmt.Errorf("purging cache: %w", err)
	}

	cmd.Printf("Purged %d expired answers.\n", purged)
	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	if responseCache == nil {
		return errors.New("cache not configured")
	}

	cleared, err := responseCache.Clear(context.Background())
	if err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}

	cmd.Printf("Cleared %d cached answers.\n", cleared)
	return nil
}
