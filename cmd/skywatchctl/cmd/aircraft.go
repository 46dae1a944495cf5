package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/skywatch/internal/models"
)

// aircraftCmd lists the aircraft the server currently tracks.
var aircraftCmd = &cobra.Command{
	Use:   "aircraft",
	Short: "List tracked aircraft",
	RunE: func(cmd *cobra.Command, args []string) error {
		var aircraft []models.AircraftState
		if err := apiCall(http.MethodGet, "/api/v1/aircraft", &aircraft); err != nil {
			return err
		}
		if output == "json" {
			return printJSON(aircraft)
		}
		if len(aircraft) == 0 {
			fmt.Println("no aircraft tracked")
			return nil
		}

		fmt.Printf("%-8s  %-8s  %9s  %10s  %7s  %5s  %5s  %s\n",
			"HEX", "CALLSIGN", "LAT", "LON", "ALT", "GS", "TRK", "SQUAWK")
		for _, a := range aircraft {
			fmt.Printf("%-8s  %-8s  %9.4f  %10.4f  %7.0f  %5.0f  %5.0f  %s\n",
				a.Hex, a.Callsign, a.Lat, a.Lon, a.Altitude, a.GroundSpeed, a.Track, a.Squawk)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(aircraftCmd)
}
