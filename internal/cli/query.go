package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/harun/agentq/pkg/memory"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var queryJSON bool

var queryCmd = &cobra.Command{
	Use:   "query <substring>",
	Short: "Search the memory log",
	Long: `Print the most recent memory log records whose task text contains the
given substring, newest first.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print records as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	mem, err := memory.Open(memory.Config{DBPath: cfg.MemoryDB, Logger: zerolog.Nop()})
	if err != nil {
		return err
	}
	defer mem.Close()

	records, err := mem.Query(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if queryJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if records == nil {
			records = []memory.Record{}
		}
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No matching records.")
		return nil
	}

	for _, r := range records {
		fmt.Fprintf(out, "#%d %s %s\nTask: %s\nResult:\n%s\n\n",
			r.ID, r.Timestamp.Format(time.DateTime), r.Agent, r.UserInput, r.AIResponse)
	}
	return nil
}
