// Command assess runs a flood evacuation assessment over two ESRI ASCII
// grids without Kafka, printing the report and optionally writing the flood
// area as GeoJSON.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "assess",
		Short:        "Offline hazard impact assessment over ESRI ASCII grids",
		SilenceUsage: true,
	}
	cmd.AddCommand(runCmd(), pointsCmd(), classesCmd(), clipCmd())
	return cmd
}
