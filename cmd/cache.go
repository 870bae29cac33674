package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptradar/rxquote/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the regional price cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired regional price entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("cache"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.DeleteExpiredRegionalPrices(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("purged %d expired entries (ttl %s)\n", n, store.DefaultRegionalTTL)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
