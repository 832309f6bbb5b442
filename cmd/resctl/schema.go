package main

import (
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema <resource>",
	Short: "Fetch the schema of a resource",
	Long:  `Fetch the server-side schema description of a resource, when the API exposes one.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		tp, err := buildTransport(cfg)
		if err != nil {
			return err
		}

		sch, err := tp.Schema(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(sch)
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
