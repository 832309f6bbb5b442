package main

import (
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <resource> <id>",
	Short: "Fetch a single item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		eng, cleanup, err := buildEngine(cfg, nil, "")
		if err != nil {
			return err
		}
		defer cleanup()

		it, err := eng.Get(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(it)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
