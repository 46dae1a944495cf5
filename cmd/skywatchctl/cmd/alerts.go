package cmd

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/skywatch/internal/alerting"
	"github.com/good-yellow-bee/skywatch/internal/models"
)

var alertsHistoryLimit int

// alertsCmd represents the alerts command group
var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Alert management commands",
	Long: `Commands for inspecting and managing alerts on a running server.

Examples:
  # List open alerts
  skywatchctl alerts list

  # Show retained alert history
  skywatchctl alerts history --limit 20

  # Acknowledge and resolve
  skywatchctl alerts ack <id>
  skywatchctl alerts resolve <id>`,
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		var alerts []*models.Alert
		if err := apiCall(http.MethodGet, "/api/v1/alerts", &alerts); err != nil {
			return err
		}
		return printAlerts(alerts)
	},
}

var alertsHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show retained alert history, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/api/v1/alerts/history"
		if alertsHistoryLimit > 0 {
			path = fmt.Sprintf("%s?limit=%d", path, alertsHistoryLimit)
		}
		var alerts []*models.Alert
		if err := apiCall(http.MethodGet, path, &alerts); err != nil {
			return err
		}
		return printAlerts(alerts)
	},
}

var alertsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show alert store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		var stats alerting.Stats
		if err := apiCall(http.MethodGet, "/api/v1/alerts/stats", &stats); err != nil {
			return err
		}
		if output == "json" {
			return printJSON(stats)
		}
		fmt.Printf("open:          %d\n", stats.OpenCount)
		fmt.Printf("created:       %d\n", stats.Created)
		fmt.Printf("suppressed:    %d\n", stats.Suppressed)
		fmt.Printf("acknowledged:  %d\n", stats.Acknowledged)
		fmt.Printf("resolved:      %d\n", stats.Resolved)
		fmt.Printf("auto-resolved: %d\n", stats.AutoResolved)
		for kind, n := range stats.ByKind {
			fmt.Printf("  %-12s %d\n", kind, n)
		}
		return nil
	},
}

var alertsAckCmd = &cobra.Command{
	Use:   "ack <id>",
	Short: "Acknowledge an open alert",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var alert models.Alert
		if err := apiCall(http.MethodPost, "/api/v1/alerts/"+args[0]+"/acknowledge", &alert); err != nil {
			return err
		}
		fmt.Printf("acknowledged %s\n", alert.ID)
		return nil
	},
}

var alertsResolveCmd = &cobra.Command{
	Use:   "resolve <id>",
	Short: "Resolve an open alert",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var alert models.Alert
		if err := apiCall(http.MethodPost, "/api/v1/alerts/"+args[0]+"/resolve", &alert); err != nil {
			return err
		}
		fmt.Printf("resolved %s\n", alert.ID)
		return nil
	},
}

func init() {
	alertsHistoryCmd.Flags().IntVarP(&alertsHistoryLimit, "limit", "n", 0, "maximum alerts to return (0 = all retained)")

	alertsCmd.AddCommand(alertsListCmd)
	alertsCmd.AddCommand(alertsHistoryCmd)
	alertsCmd.AddCommand(alertsStatsCmd)
	alertsCmd.AddCommand(alertsAckCmd)
	alertsCmd.AddCommand(alertsResolveCmd)
	rootCmd.AddCommand(alertsCmd)
}

func printAlerts(alerts []*models.Alert) error {
	if output == "json" {
		return printJSON(alerts)
	}
	if len(alerts) == 0 {
		fmt.Println("no alerts")
		return nil
	}

	fmt.Printf("%-36s  %-10s  %-8s  %-8s  %-20s  %s\n",
		"ID", "KIND", "SEVERITY", "STATE", "CREATED", "TITLE")
	for _, a := range alerts {
		state := "open"
		switch {
		case a.ResolvedAt != nil:
			state = "resolved"
		case a.Acknowledged:
			state = "acked"
		}
		fmt.Printf("%-36s  %-10s  %-8s  %-8s  %-20s  %s\n",
			a.ID, a.Kind, a.Severity, state,
			a.CreatedAt.Format("2006-01-02 15:04:05"),
			strings.TrimSpace(a.Title))
	}
	return nil
}
