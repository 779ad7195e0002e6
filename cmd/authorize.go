package cmd

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kenislabs/arka-gateway/internal/oauth"
	"github.com/kenislabs/arka-gateway/internal/store"
	"github.com/kenislabs/arka-gateway/internal/worker"
)

func newAuthorizeCmd() *cobra.Command {
	var principal string

	cmd := &cobra.Command{
		Use:   "authorize <provider-key>",
		Short: "Run the OAuth authorization flow for a provider",
		Long: `Prints the provider's authorization URL, then waits for the code
returned after consent. The resulting credential is saved to the
configured store keyed by provider and principal.

Example:

  arka-gateway authorize github-mcp
  arka-gateway authorize jira-mcp --principal alice@example.com`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuthorize(cmd, args[0], principal)
		},
	}

	cmd.Flags().StringVar(&principal, "principal", worker.DefaultPrincipal, "Principal to store the credential under")

	return cmd
}

func runAuthorize(cmd *cobra.Command, providerKey, principal string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var credStore oauth.CredentialStore
	if cfg.Store.Path != "" {
		sqliteStore, err := store.NewSQLiteStore(cfg.Store.Path, logger)
		if err != nil {
			return fmt.Errorf("failed to open credential store: %w", err)
		}
		defer sqliteStore.Close()
		credStore = sqliteStore
	} else {
		// Without a store path the credential dies with this process.
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: no store path configured, the credential will not be persisted")
		credStore = store.NewMemoryStore()
	}

	registry := oauth.NewRegistry(credStore, oauth.WithLogger(logger))
	providers, err := cfg.BuildProviders(nil)
	if err != nil {
		return err
	}
	for _, p := range providers {
		registry.Register(p)
	}

	authURL, state, err := registry.AuthorizeURL(providerKey)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Open the following URL in your browser and grant access:\n\n  %s\n\n", authURL)
	fmt.Fprintf(out, "State: %s\n", state)
	fmt.Fprint(out, "Paste the authorization code here: ")

	reader := bufio.NewReader(cmd.InOrStdin())
	code, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("no authorization code provided")
	}

	if err := registry.CompleteAuthorization(cmd.Context(), providerKey, principal, code); err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	fmt.Fprintf(out, "Authorized %s for principal %q.\n", providerKey, principal)
	return nil
}
