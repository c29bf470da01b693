package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sheetsync/internal/connectors/smartsheet"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Set the API token and sheet IDs",
	Long: `Interactively configures the Smartsheet connection: the API token
(read without echo) and the comma-separated list of sheet IDs to sync.
Values are written to the config file with owner-only permissions.`,
	RunE: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, _ []string) error {
	store, err := openConfig()
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)

	current := store.GetString(smartsheet.KeyAPIToken)
	if current != "" {
		cmd.Printf("API token [%s]: ", maskToken(current))
	} else {
		cmd.Print("API token: ")
	}
	token := readPassword()
	cmd.Println()
	if token == "" {
		token = current
	}
	if token == "" {
		return errors.New("an API token is required")
	}

	currentIDs := store.GetString(smartsheet.KeySheetIDs)
	if currentIDs != "" {
		cmd.Printf("Sheet IDs (comma-separated) [%s]: ", currentIDs)
	} else {
		cmd.Print("Sheet IDs (comma-separated): ")
	}
	rawIDs := readLine(reader)
	if rawIDs == "" {
		rawIDs = currentIDs
	}
	ids := smartsheet.SplitSheetIDs(rawIDs)
	if len(ids) == 0 {
		return errors.New("at least one sheet ID is required")
	}

	if err := store.Set(smartsheet.KeyAPIToken, token); err != nil {
		return fmt.Errorf("save API token: %w", err)
	}
	if err := store.Set(smartsheet.KeySheetIDs, strings.Join(ids, ",")); err != nil {
		return fmt.Errorf("save sheet IDs: %w", err)
	}

	cmd.Printf("Configuration saved to %s\n", store.Path())
	cmd.Printf("Configured %d sheet(s). Run 'sheetsync sync' to start.\n", len(ids))
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read the token without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
