package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "resctl",
	Short: "Inspect and mutate remote resource collections",
	Long: `resctl talks to a REST collection API through a caching engine:
reads go through the local cache, writes apply optimistically and roll
back when the server refuses them, and watch follows a live change stream.

Every flag can also be set through the environment with a RESCTL_ prefix,
e.g. RESCTL_ENDPOINT or RESCTL_CACHE_KIND.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("endpoint", "", "base URL of the resource API")
	pf.String("primary-key", "id", "primary-key field of the collections")
	pf.Bool("optimistic", true, "apply mutations to the cache before the server confirms")
	pf.Bool("verbose", false, "debug logging to stderr")
	pf.String("cache", "memory", "cache backend: memory, lru, ristretto, bigcache or redis")
	pf.String("token", "", "bearer token sent with every request")
}
