// Package cli wires the ocwatch commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ocwatch",
	Short: "Audit recorder for agent-execution sessions",
	Long: `ocwatch subscribes to an agent host's event bus and keeps a durable
audit trail of sessions, messages, tool executions and token spend in a
Turso/libsql database.

The recorder tolerates out-of-order and duplicate delivery: replaying the
same events converges to the same database state.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}
