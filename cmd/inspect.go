package main

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/geomorph-labs/gauntlet/internal/features"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize a footprint file without running the pipeline",
	Long: `Ingests the footprint file and prints record counts, area statistics
and the dataset extent. Useful for checking id fields and coordinate ranges
before a full run.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		input, _ := cmd.Flags().GetString("input")
		records, err := loadRecords(cmd, input)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return eris.Errorf("inspect: no usable records in %s", input)
		}

		areas := make([]float64, len(records))
		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		for i, rec := range records {
			areas[i] = rec.AreaSqm
			minX = math.Min(minX, rec.CentroidX)
			minY = math.Min(minY, rec.CentroidY)
			maxX = math.Max(maxX, rec.CentroidX)
			maxY = math.Max(maxY, rec.CentroidY)
		}
		summary := features.Summarize(areas)

		p := message.NewPrinter(language.English)
		p.Fprintf(cmd.OutOrStdout(), "records:        %d\n", len(records))
		p.Fprintf(cmd.OutOrStdout(), "area sqm mean:  %.2f\n", summary.Mean)
		p.Fprintf(cmd.OutOrStdout(), "area sqm std:   %.2f\n", summary.Std)
		p.Fprintf(cmd.OutOrStdout(), "area sqm min:   %.2f\n", summary.Min)
		p.Fprintf(cmd.OutOrStdout(), "area sqm max:   %.2f\n", summary.Max)
		p.Fprintf(cmd.OutOrStdout(), "centroid extent: x [%.2f, %.2f] y [%.2f, %.2f]\n", minX, maxX, minY, maxY)
		p.Fprintf(cmd.OutOrStdout(), "sample id:      %s\n", records[0].ID)

		return nil
	},
}

func init() {
	inspectCmd.Flags().String("input", "", "path to the footprint file (.shp, .geojson)")
	inspectCmd.Flags().String("format", "", "input format: shapefile or geojson (default: by extension)")
	inspectCmd.Flags().String("id-field", "", "attribute holding the unique record id")
	inspectCmd.Flags().String("lon-field", "", "attribute holding a precomputed centroid longitude")
	inspectCmd.Flags().String("lat-field", "", "attribute holding a precomputed centroid latitude")

	rootCmd.AddCommand(inspectCmd)
}
