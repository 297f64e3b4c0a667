package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jengzang/salesmap-backend-go/internal/ingest"
	"github.com/jengzang/salesmap-backend-go/internal/models"
	"github.com/jengzang/salesmap-backend-go/internal/registry"
	"github.com/jengzang/salesmap-backend-go/internal/service"
	"github.com/jengzang/salesmap-backend-go/internal/viz"
)

type pinOutput struct {
	viz.Pin
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

var pinsCmd = &cobra.Command{
	Use:   "pins",
	Short: "Print the map pins built for stored (or supplied) metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		dimFlag, _ := cmd.Flags().GetString("dimension")
		input, _ := cmd.Flags().GetString("input")
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")

		dim, err := models.ParseDimension(dimFlag)
		if err != nil {
			return err
		}
		if dim != models.DimensionState && dim != models.DimensionCity {
			return fmt.Errorf("pins are built for state or city, not %s", dim)
		}

		rng, err := parseRange(from, to)
		if err != nil {
			return err
		}
		exclude, _ := cmd.Flags().GetString("exclude")
		only, _ := cmd.Flags().GetString("only")
		limit, _ := cmd.Flags().GetInt("limit")
		raw, _ := cmd.Flags().GetBool("raw")
		filter := models.MetricFilter{Range: rng, Exclude: exclude, Only: only, Limit: limit}

		var metrics []models.AggregatedMetric
		switch {
		case input != "" && raw:
			payload, err := os.ReadFile(input)
			if err != nil {
				return err
			}
			recs, err := ingest.Normalize(payload)
			if err != nil {
				return err
			}
			metrics = ingest.Top(ingest.Aggregate(ingest.Filter(recs, filter), dim), limit)
		case input != "":
			payload, err := os.ReadFile(input)
			if err != nil {
				return err
			}
			if metrics, err = ingest.NormalizeMetrics(payload); err != nil {
				return err
			}
			ingest.SortByValue(metrics)
			metrics = ingest.Top(metrics, limit)
		default:
			db, repo, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()
			metrics = service.NewMetricService(repo).FetchAggregatedMetrics(context.Background(), dim, filter)
		}

		states, cities, err := registry.LoadEmbedded()
		if err != nil {
			return err
		}
		opts := cfg.MapOptions()
		popts := viz.PinOptions{BBox: opts.BBox, Canvas: opts.Canvas, Size: opts.StateSize, Bands: opts.Bands}
		var loc viz.Locator = states
		if dim == models.DimensionCity {
			loc = cities
			popts.Size = opts.CitySize
		}

		pins := viz.BuildPins(metrics, loc, popts)
		out := struct {
			Pins      []pinOutput `json:"pins"`
			Unmatched []string    `json:"unmatched"`
		}{Pins: make([]pinOutput, 0, len(pins)), Unmatched: viz.Unmatched(metrics, loc)}
		for _, p := range pins {
			out.Pins = append(out.Pins, pinOutput{Pin: p, X: p.Point.X, Y: p.Point.Y})
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(pinsCmd)
	pinsCmd.Flags().StringP("dimension", "d", "state", "state or city")
	pinsCmd.Flags().StringP("input", "i", "", "Read pre-aggregated metrics JSON instead of the database")
	pinsCmd.Flags().Bool("raw", false, "The --input file is an ERP sales report to aggregate")
	pinsCmd.Flags().String("exclude", "", "Hide dealers whose name contains this")
	pinsCmd.Flags().String("only", "", "Keep only dealers whose name contains this")
	pinsCmd.Flags().Int("limit", 0, "Top N by value, 0 = all")
	pinsCmd.Flags().String("from", "", "Start date")
	pinsCmd.Flags().String("to", "", "End date")
}
