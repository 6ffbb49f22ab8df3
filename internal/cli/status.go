package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	statusAddr   string
	statusKey    string
	statusSecret string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query the schedule state of a running holdoff server",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusAddr, "addr", "http://localhost:8078", "Server base URL")
	statusCmd.Flags().StringVar(&statusKey, "key", "", "Scheduler identity key (default: the root scheduler)")
	statusCmd.Flags().StringVar(&statusSecret, "secret", "", "Webhook secret, if the server requires one")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	url := statusAddr + "/status"
	if statusKey != "" {
		url = statusAddr + "/hooks/" + statusKey + "/status"
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if statusSecret != "" {
		req.Header.Set("X-Webhook-Secret", statusSecret)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("querying status: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	var pretty map[string]any
	if err := json.Unmarshal(body, &pretty); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting response: %w", err)
	}

	fmt.Fprintln(os.Stdout, string(out))
	return nil
}
