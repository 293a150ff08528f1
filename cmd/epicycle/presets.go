package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gogpu/epicycle/internal/config"
)

func listPresets(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tARMS\tCAPACITY\tINTERVAL\tPOLICY")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", name, len(p.Arms), p.Trail.Capacity, p.Trail.Interval, p.Trail.Policy)
	}
	return tw.Flush()
}
