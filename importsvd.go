package main

import (
	"fmt"
	"os"

	"github.com/go-faster/errors"

	"bitsmith/device"
)

type ImportSVD struct {
	File   string   `arg:"" name:"file" help:"CMSIS-SVD file." type:"existingfile"`
	Output *outfile `name:"output" short:"o" help:"Write the device definition to FILE." placeholder:"FILE|stdout"`
	Owner  string   `name:"owner" help:"Import as a private device owned by this user."`
}

func (c *ImportSVD) Run(a *app) error {
	f, err := os.Open(c.File)
	if err != nil {
		return errors.Wrap(err, "open svd")
	}
	defer f.Close()

	dev, err := device.ImportSVD(f)
	if err != nil {
		return err
	}
	if c.Owner != "" {
		dev = dev.Duplicate(c.Owner)
	}
	for _, iss := range device.Validate(dev) {
		fmt.Fprintf(a.stderr, "warning: %s\n", iss)
	}

	out := a.stdout
	if c.Output != nil {
		defer c.Output.Close()
		out = c.Output
	}
	_, err = fmt.Fprintf(out, "%s\n", device.EncodeJSON(dev))
	return err
}
