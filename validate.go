package main

import (
	"fmt"
	"runtime"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"bitsmith/device"
	"bitsmith/diag"
	"bitsmith/log"
)

type Validate struct {
	Files []string `arg:"" name:"file" help:"${device_help}" type:"existingfile"`
}

// checkDevice loads and validates one device file. Load failures which are
// not issues are returned as a single parse error.
func checkDevice(path string) diag.List {
	dev, err := device.Load(path)
	if err != nil {
		var issues diag.List
		if !errors.As(err, &issues) {
			issues.Add("", err)
		}
		return issues
	}
	return device.Validate(dev)
}

func (v *Validate) Run(a *app) error {
	results := make([]diag.List, len(v.Files))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range v.Files {
		g.Go(func() error {
			results[i] = checkDevice(path)
			log.ModCLI.DebugZ("device checked").
				String("file", path).
				Int("issues", len(results[i])).
				End()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	blocking := false
	for i, path := range v.Files {
		issues := results[i]
		if len(issues) == 0 {
			fmt.Fprintf(a.stdout, "%s: ok\n", path)
			continue
		}
		for _, iss := range issues {
			fmt.Fprintf(a.stdout, "%s: %s\n", path, iss)
		}
		blocking = blocking || issues.Blocking()
	}
	if blocking {
		return errBlocking
	}
	return nil
}
