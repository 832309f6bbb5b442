package main

import (
	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/rescache/resource"
)

var (
	listPage    int
	listPerPage int
	listSort    string
	listOrder   string
	listFilters []string
)

var listCmd = &cobra.Command{
	Use:   "list <resource>",
	Short: "List items of a resource",
	Long: `List one page of a resource collection.

Examples:
  resctl list todos
  resctl list todos --page 2 --per-page 50 --sort created_at --order desc
  resctl list todos --filter done=false --filter owner=alice`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	f := listCmd.Flags()
	f.IntVar(&listPage, "page", 0, "page number (1-based; 0 = server default)")
	f.IntVar(&listPerPage, "per-page", 0, "items per page (0 = server default)")
	f.StringVar(&listSort, "sort", "", "field to sort by")
	f.StringVar(&listOrder, "order", "", "sort order: asc or desc")
	f.StringArrayVar(&listFilters, "filter", nil, "field=value filter (repeatable)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	filter, err := parseFilters(listFilters)
	if err != nil {
		return err
	}

	eng, cleanup, err := buildEngine(cfg, nil, "")
	if err != nil {
		return err
	}
	defer cleanup()

	lr, err := eng.List(cmd.Context(), args[0], resource.Query{
		Page:    listPage,
		PerPage: listPerPage,
		Sort:    listSort,
		Order:   listOrder,
		Filter:  filter,
	})
	if err != nil {
		return err
	}
	return printJSON(map[string]any{"items": lr.Items, "total": lr.Total})
}
