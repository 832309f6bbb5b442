package main

import (
	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/rescache"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <resource> <id>",
	Short: "Delete an item",
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

		return eng.Delete(cmd.Context(), args[0], args[1], rescache.MutateOptions{Optimistic: cfg.Optimistic})
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
