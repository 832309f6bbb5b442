package main

import (
	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/rescache"
)

var updateCmd = &cobra.Command{
	Use:   "update <resource> <id> <json|->",
	Short: "Patch an item",
	Long: `Apply a partial update. Only the fields present in the JSON object
change; everything else keeps its server value.

Example:
  resctl update todos 42 '{"done":true}'`,
	Args: cobra.ExactArgs(3),
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	patch, err := readJSONArg(args[2])
	if err != nil {
		return err
	}

	eng, cleanup, err := buildEngine(cfg, nil, "")
	if err != nil {
		return err
	}
	defer cleanup()

	it, err := eng.Update(cmd.Context(), args[0], args[1], patch, rescache.MutateOptions{Optimistic: cfg.Optimistic})
	if err != nil {
		return err
	}
	return printJSON(it)
}
