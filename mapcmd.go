package main

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/go-faster/errors"

	"bitsmith/device"
	"bitsmith/memmap"
	"bitsmith/wide"
)

type Map struct {
	File     string   `arg:"" name:"file" help:"${device_help}" type:"existingfile"`
	GapScale *float64 `name:"gap-scale" help:"Weight of the holes between peripherals. (default from config)"`
	MinWidth *float64 `name:"min-width" help:"Minimum peripheral width, in percent. (default from config)"`
	JSON     bool     `name:"json" help:"Print the layout descriptor as JSON."`
	Columns  int      `name:"columns" help:"Width of the map bar, in characters." default:"64"`
}

// options returns def overridden by the layout flags.
func (m *Map) options(def memmap.Options) (memmap.Options, error) {
	opts := def
	if m.GapScale != nil {
		opts.GapScale = *m.GapScale
	}
	if m.MinWidth != nil {
		opts.MinPeripheralWidth = *m.MinWidth
	}
	if err := opts.Validate().Err(); err != nil {
		return opts, errors.Wrap(err, "layout options")
	}
	return opts, nil
}

func (m *Map) Run(a *app) error {
	opts, err := m.options(a.cfg.Layout)
	if err != nil {
		return err
	}
	dev, err := device.Load(m.File)
	if err != nil {
		return err
	}
	lay := memmap.Compute(memmap.RegionsOf(dev), opts)

	if m.JSON {
		_, err := fmt.Fprintf(a.stdout, "%s\n", lay.EncodeJSON())
		return err
	}
	return printLayout(a.stdout, lay, m.Columns)
}

func printLayout(w io.Writer, lay *memmap.Layout, columns int) error {
	fmt.Fprintln(w, mapBar(lay, columns))
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEGMENT\tBASE\tEND\tSIZE\tSTART\tWIDTH")
	for _, s := range lay.Segments {
		name := s.Name
		if s.Kind == memmap.GapSegment {
			name = "(gap)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f%%\t%.2f%%\n",
			name, s.Tooltip.BaseAddress, s.Tooltip.EndAddress, s.Tooltip.Size, s.StartPct, s.WidthPct)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, o := range lay.Overlaps {
		fmt.Fprintf(w, "overlap: %s and %s share %s bytes\n", o.First, o.Second, wide.Literal(&o.Bytes))
	}
	for _, iss := range lay.Issues {
		fmt.Fprintf(w, "warning: %s\n", iss)
	}
	return nil
}

// mapBar draws the layout on one line: peripherals alternate between '#'
// and '=', gaps are dots. Every peripheral gets at least one character.
func mapBar(lay *memmap.Layout, columns int) string {
	var sb strings.Builder
	sb.WriteByte('|')
	periph := 0
	for _, s := range lay.Segments {
		n := int(math.Round(s.WidthPct * float64(columns) / 100))
		fill := byte('.')
		if s.Kind == memmap.PeripheralSegment {
			fill = "#="[periph%2]
			periph++
			n = max(n, 1)
		}
		sb.WriteString(strings.Repeat(string(fill), n))
	}
	sb.WriteByte('|')
	return sb.String()
}
