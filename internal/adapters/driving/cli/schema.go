package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Show the destination tables for the configured sheets",
	Long: `Prints the destination table declared for each configured sheet.
Table names are derived from the live sheet names; a sheet whose name
cannot be resolved falls back to sheet_<id>.`,
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	env, err := buildEnv(ctx, false)
	if err != nil {
		return err
	}
	defer env.cleanup() //nolint:errcheck // Best-effort close on exit

	schemas, err := env.runner.Schema(ctx)
	if err != nil {
		return fmt.Errorf("resolve schema: %w", err)
	}

	t := newTable("SHEET ID", "TABLE", "PRIMARY KEY")
	for i, schema := range schemas {
		t.Row(env.sheets[i], schema.Table, strings.Join(schema.PrimaryKey, ", "))
	}
	cmd.Println(t.Render())

	return nil
}

// newTable returns a bordered table with the house style.
func newTable(headers ...string) *table.Table {
	border := lipgloss.NewStyle().Foreground(lipgloss.Color("#45475A"))
	header := lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(border).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
}
