package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kenislabs/arka-gateway/internal/config"
)

// rootCmd represents the base command for the arka-gateway application
var rootCmd = &cobra.Command{
	Use:   "arka-gateway",
	Short: "MCP gateway for GitHub, Google Tasks, Jira and Supabase",
	Long: `arka-gateway is an MCP (Model Context Protocol) server that lets
tool-calling agents act against GitHub, Google Tasks, Jira and Supabase
on behalf of end users.

At its core is an OAuth provider registry that manages credentials per
(provider, principal) pair: authorization, caching, refresh and
revocation. Agents never see tokens; they call tools.`,
	SilenceUsage: true,
}

var configPath string

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "arka-gateway version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file named by --config, falling back to
// the default location.
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	return config.Load(path)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the arka-gateway version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Printf("arka-gateway version %s\n", version)
		},
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default: ~/.config/arka-gateway/config.yaml)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newAuthorizeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
