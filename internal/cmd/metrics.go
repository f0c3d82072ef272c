package cmd

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/gemora/internal/metrics"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Print metrics in Prometheus text format",
	Long: `Print metrics in the Prometheus text exposition format.

Without --url the metrics collected by this process are printed, which is
mostly useful together with --print-metrics on other commands. With --url the
metrics endpoint of a running 'gemora serve' is scraped and printed.

Examples:
  gemora metrics --url http://127.0.0.1:8080/metrics
  gemora users list --print-metrics`,
	Args: cobra.NoArgs,
	RunE: runMetrics,
}

var metricsURL string

func init() {
	metricsCmd.Flags().StringVar(&metricsURL, "url", "", "metrics endpoint of a running server")
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	if metricsURL == "" {
		return metrics.WriteText(cmd.OutOrStdout(), run.registry)
	}

	url := metricsURL
	if !strings.HasSuffix(url, "/metrics") {
		url = strings.TrimRight(url, "/") + "/metrics"
	}
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("invalid metrics URL: %w", err)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to scrape %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to scrape %s: status %d", url, resp.StatusCode)
	}
	n, err := metrics.Relay(cmd.OutOrStdout(), resp.Body)
	if err != nil {
		return fmt.Errorf("failed to parse metrics from %s: %w", url, err)
	}
	run.logger.Debug("scraped metrics", "url", url, "families", n)
	return nil
}
