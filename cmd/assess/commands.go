package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/hazard-impact-service/internal/adapter/esri"
	"github.com/couchcryptid/hazard-impact-service/internal/adapter/geojson"
	"github.com/couchcryptid/hazard-impact-service/internal/config"
	"github.com/couchcryptid/hazard-impact-service/internal/domain"
	"github.com/couchcryptid/hazard-impact-service/internal/geometry"
	"github.com/couchcryptid/hazard-impact-service/internal/report"
)

func runCmd() *cobra.Command {
	var (
		hazardPath   string
		exposurePath string
		needsPath    string
		format       string
		floodPath    string
		floodMin     float64
		floodMax     float64
		params       = domain.DefaultParameters()
	)

	c := &cobra.Command{
		Use:   "run",
		Short: "Assess how many people need evacuation and print the report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			hazard, err := esri.ReadFile(hazardPath)
			if err != nil {
				return err
			}
			exposure, err := esri.ReadFile(exposurePath)
			if err != nil {
				return err
			}
			if needsPath != "" {
				needs, err := config.LoadNeedsProfile(needsPath)
				if err != nil {
					return err
				}
				params.MinimumNeeds = needs
			}

			a, err := domain.Assess(hazard, exposure, params)
			if err != nil {
				return err
			}
			if err := printAssessment(cmd.OutOrStdout(), a, format); err != nil {
				return err
			}

			if floodPath == "" {
				return nil
			}
			area, err := domain.Polygonize(hazard, floodMin, floodMax, geometry.NewRectEngine())
			if err != nil {
				return err
			}
			if err := writeFeatures(floodPath, domain.PolygonFeatures(area), "area"); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d flood polygon(s) to %s\n", len(area), floodPath)
			return nil
		},
	}

	c.Flags().StringVar(&hazardPath, "hazard", "", "Hazard depth grid (.asc, required)")
	c.Flags().StringVar(&exposurePath, "exposure", "", "Population grid (.asc, required)")
	c.Flags().Float64SliceVar((*[]float64)(&params.Thresholds), "thresholds", params.Thresholds, "Ascending hazard thresholds")
	c.Flags().IntVar(&params.Classes, "classes", params.Classes, "Number of display classes")
	c.Flags().StringVar(&params.HazardUnit, "unit", params.HazardUnit, "Hazard unit shown in the report")
	c.Flags().StringVar(&params.Question, "question", params.Question, "Question heading the report")
	c.Flags().StringVar(&needsPath, "needs", "", "Minimum needs profile (yaml, json or toml)")
	c.Flags().StringVar(&format, "format", "text", "Output format: text|html|json")
	c.Flags().StringVar(&floodPath, "flood-area", "", "Write the flood area polygons as GeoJSON to this file")
	c.Flags().Float64Var(&floodMin, "flood-min", 0, "Flood area lower bound (exclusive)")
	c.Flags().Float64Var(&floodMax, "flood-max", math.Inf(1), "Flood area upper bound (exclusive)")

	_ = c.MarkFlagRequired("hazard")
	_ = c.MarkFlagRequired("exposure")
	return c
}

func pointsCmd() *cobra.Command {
	var (
		gridPath string
		lower    float64
		upper    float64
		field    string
	)

	c := &cobra.Command{
		Use:   "points",
		Short: "Print the cells strictly between two values as GeoJSON points",
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := esri.ReadFile(gridPath)
			if err != nil {
				return err
			}
			features, err := domain.PixelsToFeatures(g, lower, upper)
			if err != nil {
				return err
			}
			return geojson.NewSink(cmd.OutOrStdout(), field).WriteFeatures(features)
		},
	}

	c.Flags().StringVar(&gridPath, "grid", "", "Grid (.asc, required)")
	c.Flags().Float64Var(&lower, "min", 0, "Lower bound (exclusive)")
	c.Flags().Float64Var(&upper, "max", math.Inf(1), "Upper bound (exclusive)")
	c.Flags().StringVar(&field, "field", geojson.DefaultField, "Property name for the cell value")

	_ = c.MarkFlagRequired("grid")
	return c
}

func classesCmd() *cobra.Command {
	var (
		gridPath string
		n        int
	)

	c := &cobra.Command{
		Use:   "classes",
		Short: "Print the display classes for a grid",
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := esri.ReadFile(gridPath)
			if err != nil {
				return err
			}
			classes, err := domain.BuildClasses(g.Values(), n)
			if err != nil {
				return err
			}

			t := report.Table{Rows: []report.Row{report.HeaderRow("Class", "Label", "Colour")}}
			for _, sc := range classes {
				t.Rows = append(t.Rows, report.DataRow(strconv.Itoa(sc.Index), sc.Label, sc.Color))
			}
			return report.NewTextSink(cmd.OutOrStdout()).WriteTable(t)
		},
	}

	c.Flags().StringVar(&gridPath, "grid", "", "Grid (.asc, required)")
	c.Flags().IntVar(&n, "classes", domain.DefaultClasses, "Number of display classes")

	_ = c.MarkFlagRequired("grid")
	return c
}

func clipCmd() *cobra.Command {
	var (
		gridPath string
		outPath  string
		width    int
		height   int
		bounds   []float64
	)

	c := &cobra.Command{
		Use:   "clip",
		Short: "Resample a grid onto an extent with a given width and height",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(bounds) != 4 {
				return fmt.Errorf("--extent wants xmin,ymin,xmax,ymax, got %d values", len(bounds))
			}
			g, err := esri.ReadFile(gridPath)
			if err != nil {
				return err
			}
			extent := domain.Extent{XMin: bounds[0], YMin: bounds[1], XMax: bounds[2], YMax: bounds[3]}
			clipped, err := domain.Clip(g, width, height, extent)
			if err != nil {
				return err
			}
			if err := esri.WriteFile(outPath, clipped); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %dx%d grid to %s\n", width, height, outPath)
			return nil
		},
	}

	c.Flags().StringVar(&gridPath, "grid", "", "Grid (.asc, required)")
	c.Flags().StringVar(&outPath, "out", "", "Output grid (.asc, required)")
	c.Flags().IntVar(&width, "width", 0, "Output columns (required)")
	c.Flags().IntVar(&height, "height", 0, "Output rows (required)")
	c.Flags().Float64SliceVar(&bounds, "extent", nil, "Output extent xmin,ymin,xmax,ymax (required)")

	for _, name := range []string{"grid", "out", "width", "height", "extent"} {
		_ = c.MarkFlagRequired(name)
	}
	return c
}

func printAssessment(w io.Writer, a domain.Assessment, format string) error {
	switch format {
	case "text":
		return report.NewTextSink(w).WriteTable(a.Report)
	case "html":
		return report.NewHTMLSink(w).WriteTable(a.Report)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(a.Result(""))
	default:
		return fmt.Errorf("unknown format %q (want text, html or json)", format)
	}
}

func writeFeatures(path string, features []domain.Feature, field string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := geojson.NewSink(f, field).WriteFeatures(features); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
