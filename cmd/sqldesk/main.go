// Command sqldesk runs the SQLDesk backend and offers offline helpers such as
// compiling a saved query-builder canvas.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/koustreak/sqldesk/internal/logger"
)

var (
	// set with -ldflags
	version = "dev"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		logger.Global().Error(err.Error())
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cobra.EnableCommandSorting = false
	root := &cobra.Command{
		Use:           "sqldesk",
		Short:         "Browser MySQL client backend",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(compileCmd())
	return root
}
