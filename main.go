package main

import (
	"fmt"
	"io"
	"os"

	"github.com/go-faster/errors"
)

var version = "devel"

// errBlocking is returned by commands which found blocking issues. They have
// already been reported, so main exits with a non-zero status and nothing
// more.
var errBlocking = errors.New("blocking issues found")

// app is what every command runs with.
type app struct {
	cfg    Config
	stdout io.Writer
	stderr io.Writer
}

func main() {
	cli, ctx := parseArgs(os.Args[1:])

	cfg, err := loadConfig(cli.ConfigFile)
	checkf(err, "failed to load configuration")
	checkf(cli.Log.apply(cfg.Log.Modules), "invalid log configuration")

	err = ctx.Run(&app{cfg: cfg, stdout: os.Stdout, stderr: os.Stderr})
	if errors.Is(err, errBlocking) {
		os.Exit(1)
	}
	checkf(err, "%s failed", ctx.Command())
}

func (Version) Run(a *app) error {
	_, err := fmt.Fprintf(a.stdout, "bitsmith %s\n", version)
	return err
}

type ShowConfig struct{}

func (ShowConfig) Run(a *app) error {
	return writeConfig(a.stdout, a.cfg)
}
