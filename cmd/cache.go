package cmd

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	var metricsAddr string

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the credential cache of a running server",
	}

	clearCmd := &cobra.Command{
		Use:   "clear <provider-key>",
		Short: "Drop cached credentials for a provider",
		Long: `Asks a running arka-gateway server to drop its in-memory cached
credentials for one provider. Persisted credentials are untouched; the
next token resolution reloads them from the store.

The request goes to the admin endpoint on the metrics port, so the
server must be running with metrics enabled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCacheClear(cmd, metricsAddr, args[0])
		},
	}

	clearCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "localhost:9090", "Address of the server's metrics listener")

	cacheCmd.AddCommand(clearCmd)
	return cacheCmd
}

func runCacheClear(cmd *cobra.Command, metricsAddr, providerKey string) error {
	if strings.HasPrefix(metricsAddr, ":") {
		metricsAddr = "localhost" + metricsAddr
	}
	endpoint := fmt.Sprintf("http://%s/admin/cache/clear?provider=%s",
		metricsAddr, url.QueryEscape(providerKey))

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, endpoint, nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server at %s (is it running with metrics enabled?): %w", metricsAddr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("cache clear failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cleared cached credentials for %s.\n", providerKey)
	return nil
}
