package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/gogpu/epicycle"
)

func runTrace(cmd *cobra.Command, f *flags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	if cfg.Frames <= 0 {
		return fmt.Errorf("trace needs a positive frame count, got %d", cfg.Frames)
	}

	s, err := runHeadless(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	recs := s.Trail().Ordered()

	out := cmd.OutOrStdout()
	if f.csv {
		return writeCSV(out, recs)
	}
	return plotTrail(out, recs, s)
}

// writeCSV writes one row per record, oldest first.
func writeCSV(w io.Writer, recs []epicycle.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"index", "x", "y", "z", "r", "g", "b"}); err != nil {
		return err
	}
	row := make([]string, 7)
	for i, r := range recs {
		row[0] = strconv.Itoa(i)
		for j, v := range r.Position {
			row[1+j] = formatFloat(v)
		}
		for j, v := range r.Color {
			row[4+j] = formatFloat(v)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

// plotTrail plots x(t) and y(t) of the sampled tip.
func plotTrail(w io.Writer, recs []epicycle.Record, s *epicycle.Scheduler) error {
	fmt.Fprintf(w, "frames: %d  samples: %d  live records: %d\n", s.Frames(), s.Samples(), len(recs))
	var reach float64
	for _, r := range recs {
		p := epicycle.V3(float64(r.Position[0]), float64(r.Position[1]), float64(r.Position[2]))
		reach = max(reach, p.Length())
	}
	fmt.Fprintf(w, "since wrap: %d  full: %v  max |tip|: %.4g\n",
		len(s.Trail().Drawable()), s.Trail().Full(), reach)
	if len(recs) < 2 {
		fmt.Fprintln(w, "not enough samples to plot")
		return nil
	}

	xs := make([]float64, len(recs))
	ys := make([]float64, len(recs))
	for i, r := range recs {
		xs[i] = float64(r.Position[0])
		ys[i] = float64(r.Position[1])
	}

	graph := asciigraph.PlotMany([][]float64{xs, ys},
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue),
		asciigraph.SeriesLegends("x", "y"),
		asciigraph.Caption("tip position per sample"),
	)
	_, err := fmt.Fprintln(w, graph)
	return err
}
