package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/go-faster/jx"

	"bitsmith/device"
	"bitsmith/view"
)

type Rows struct {
	File string `arg:"" name:"file" help:"${device_help}" type:"existingfile"`
	JSON bool   `name:"json" help:"Print JSON instead of a table."`
}

func (r *Rows) Run(a *app) error {
	dev, err := device.Load(r.File)
	if err != nil {
		return err
	}
	rows, issues := view.Rows(dev)
	for _, iss := range issues {
		fmt.Fprintf(a.stderr, "warning: %s\n", iss)
	}

	if r.JSON {
		var e jx.Encoder
		e.SetIdent(2)
		view.EncodeRows(&e, rows)
		_, err := fmt.Fprintf(a.stdout, "%s\n", e.Bytes())
		return err
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PERIPHERAL\tREGISTER\tADDRESS\tOFFSET\tWIDTH\tACCESS\tRESET")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			row.Peripheral, row.Name, row.Address, row.Offset, row.Width, row.Access.Short(), row.Reset)
	}
	return tw.Flush()
}
