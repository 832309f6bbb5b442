package main

import (
	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/rescache"
	"github.com/unkn0wn-root/rescache/resource"
)

var createCmd = &cobra.Command{
	Use:   "create <resource> <json|->",
	Short: "Create an item",
	Long: `Create an item from an inline JSON object, or from stdin when the
argument is -.

Examples:
  resctl create todos '{"title":"write docs"}'
  cat todo.json | resctl create todos -`,
	Args: cobra.ExactArgs(2),
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := readJSONArg(args[1])
	if err != nil {
		return err
	}

	eng, cleanup, err := buildEngine(cfg, nil, "")
	if err != nil {
		return err
	}
	defer cleanup()

	it, err := eng.Create(cmd.Context(), args[0], resource.Item(data), rescache.MutateOptions{Optimistic: cfg.Optimistic})
	if err != nil {
		return err
	}
	return printJSON(it)
}
