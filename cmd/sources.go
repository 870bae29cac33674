package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scriptradar/rxquote/internal/curated"
	"github.com/scriptradar/rxquote/internal/wholesale"
	"github.com/scriptradar/rxquote/pkg/cms"
	"github.com/scriptradar/rxquote/pkg/costplus"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List wholesale pricing sources in cascade order",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("sources"); err != nil {
			return err
		}

		tables, err := curated.Load()
		if err != nil {
			return err
		}
		r := wholesale.NewResolver(tables,
			costplus.NewClient(costplus.WithBaseURL(cfg.CostPlus.BaseURL)),
			cms.NewClient(cms.WithBaseURL(cfg.Datasets.BaseURL)),
			nil, wholesale.DefaultConfig())

		for i, name := range r.SourceNames() {
			fmt.Printf("%d. %s\n", i+1, name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
