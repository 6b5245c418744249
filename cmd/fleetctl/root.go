package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	outputFmt string
	userName  string
	userRole  string
)

var rootCmd = &cobra.Command{
	Use:   "fleetctl",
	Short: "CLI for the fleet server",
	Long: `fleetctl manages a 3D printer fleet: the printers themselves, the
filament spools they draw from, and the print jobs that tie the two
together. It talks to a running fleet server over its HTTP API.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Fleet server URL")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&userName, "user", "", "Identity sent as X-Remote-User (default: FLEET_USER env or local username)")
	rootCmd.PersistentFlags().StringVar(&userRole, "role", "", "Role sent as X-User-Role (default: FLEET_ROLE env)")

	rootCmd.AddCommand(printersCmd)
	rootCmd.AddCommand(spoolsCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(healthCmd)
}

// resolvedUser returns the identity to send with requests.
// Priority: --user flag > FLEET_USER env > OS username.
func resolvedUser() string {
	if userName != "" {
		return userName
	}
	if u := os.Getenv("FLEET_USER"); u != "" {
		return u
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "fleetctl"
}

// resolvedRole returns the role to send with requests.
func resolvedRole() string {
	if userRole != "" {
		return userRole
	}
	return os.Getenv("FLEET_ROLE")
}
