// Command inertiacore runs a demo Inertia application and probes SSR services.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var version = "dev" //nolint:gochecknoglobals

func main() {
	rootCmd := &cobra.Command{
		Use:   "inertiacore",
		Short: "Inertia.js server protocol demo",
		Long: `inertiacore serves a small Inertia.js application backed by the
inertiacore factory and checks connectivity with an SSR rendering service.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		probeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
