// Package cmd contains the CLI commands for skywatchctl.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// Used for flags
	serverURL string
	output    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "skywatchctl",
	Short: "SkyWatch - Aircraft proximity alerting control tool",
	Long: `skywatchctl talks to a running SkyWatch server over its REST API.

Examples:
  # List open alerts
  skywatchctl alerts list

  # Acknowledge an alert
  skywatchctl alerts ack 4f7b2c1a-...

  # Show alert statistics
  skywatchctl alerts stats

  # List tracked aircraft
  skywatchctl aircraft`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", defaultServerURL(), "SkyWatch server base URL")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format (table, json)")
}

func defaultServerURL() string {
	if env := os.Getenv("SKYWATCH_SERVER"); env != "" {
		return env
	}
	return "http://localhost:8080"
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

// apiResponse is the server's standard envelope.
type apiResponse struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// apiCall performs one API request and decodes the data envelope into
// out (which may be nil for calls where the body is ignored).
func apiCall(method, path string, out any) error {
	u, err := url.JoinPath(serverURL, path)
	if err != nil {
		return fmt.Errorf("build URL: %w", err)
	}

	req, err := http.NewRequest(method, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("%s: %s", envelope.Error.Code, envelope.Error.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

// printJSON pretty-prints any value as JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
