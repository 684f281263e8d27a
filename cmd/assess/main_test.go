package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazard-impact-service/internal/adapter/esri"
	"github.com/couchcryptid/hazard-impact-service/internal/domain"
)

func writeGrid(t *testing.T, dir, name string, values ...float64) string {
	t.Helper()
	g, err := domain.NewGrid(2, 2, domain.Extent{XMin: 0, YMin: 0, XMax: 2, YMax: 2}, nil, values)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, esri.WriteFile(path, g))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunPrintsTextReport(t *testing.T) {
	dir := t.TempDir()
	hazard := writeGrid(t, dir, "depth.asc", 0.1, 0.4, 0.7, 1.5)
	exposure := writeGrid(t, dir, "population.asc", 100, 200, 300, 400)
	flood := filepath.Join(dir, "flood.geojson")

	out, err := execute(t, "run", "--hazard", hazard, "--exposure", exposure, "--flood-area", flood, "--flood-min", "0.5")
	require.NoError(t, err)

	assert.Contains(t, out, domain.DefaultQuestion)
	assert.Contains(t, out, "People in 1.0 m of water\t400*")
	assert.Contains(t, out, "wrote 1 flood polygon(s)")

	data, err := os.ReadFile(flood)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.InDelta(t, 2.0, fc.Features[0].Properties["area"], 1e-9)
}

func TestRunFormats(t *testing.T) {
	dir := t.TempDir()
	hazard := writeGrid(t, dir, "depth.asc", 0.1, 0.4, 0.7, 1.5)
	exposure := writeGrid(t, dir, "population.asc", 100, 200, 300, 400)

	out, err := execute(t, "run", "--hazard", hazard, "--exposure", exposure, "--format", "html")
	require.NoError(t, err)
	assert.Contains(t, out, `<table class="table table-striped condensed">`)

	out, err = execute(t, "run", "--hazard", hazard, "--exposure", exposure, "--format", "json", "--thresholds", "1", "--unit", "ft")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "impact"`)
	assert.Contains(t, out, `"evacuated": 400`)

	_, err = execute(t, "run", "--hazard", hazard, "--exposure", exposure, "--format", "pdf")
	assert.ErrorContains(t, err, `unknown format "pdf"`)
}

func TestRunRequiresGrids(t *testing.T) {
	_, err := execute(t, "run", "--hazard", "depth.asc")
	assert.ErrorContains(t, err, "exposure")
}

func TestPointsPrintsQualifyingCells(t *testing.T) {
	dir := t.TempDir()
	grid := writeGrid(t, dir, "depth.asc", 0.1, 0.4, 0.7, 1.5)

	out, err := execute(t, "points", "--grid", grid, "--min", "0.3", "--max", "1", "--field", "depth")
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection([]byte(out))
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)
	assert.InDelta(t, 0.4, fc.Features[0].Properties["depth"], 1e-9)
	assert.InDelta(t, 0.7, fc.Features[1].Properties["depth"], 1e-9)
}

func TestClassesPrintsLabels(t *testing.T) {
	dir := t.TempDir()
	grid := writeGrid(t, dir, "impact.asc", 0, 0, 0, 70)

	out, err := execute(t, "classes", "--grid", grid)
	require.NoError(t, err)
	assert.Contains(t, out, "Class\tLabel\tColour")
	assert.Contains(t, out, "Low [0 - 10]")
	assert.Contains(t, out, "High [60 - 70]")
}

func TestClipWritesResampledGrid(t *testing.T) {
	dir := t.TempDir()
	grid := writeGrid(t, dir, "depth.asc", 0.1, 0.4, 0.7, 1.5)
	out := filepath.Join(dir, "clipped.asc")

	stderr, err := execute(t, "clip", "--grid", grid, "--out", out, "--width", "1", "--height", "2", "--extent", "1,0,2,2")
	require.NoError(t, err)
	assert.Contains(t, stderr, "wrote 1x2 grid")

	g, err := esri.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, domain.Extent{XMin: 1, YMin: 0, XMax: 2, YMax: 2}, g.Extent())
	assert.Equal(t, []float64{0.4, 1.5}, g.Values())
}

func TestClipRejectsShortExtent(t *testing.T) {
	dir := t.TempDir()
	grid := writeGrid(t, dir, "depth.asc", 0.1, 0.4, 0.7, 1.5)

	_, err := execute(t, "clip", "--grid", grid, "--out", filepath.Join(dir, "x.asc"), "--width", "1", "--height", "1", "--extent", "0,0,1")
	assert.ErrorContains(t, err, "xmin,ymin,xmax,ymax")
}
