package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"bitsmith/log"
)

type (
	CLI struct {
		Validate  Validate   `cmd:"" help:"Check device definitions."`
		Rows      Rows       `cmd:"" help:"List the register instances of a device."`
		Map       Map        `cmd:"" help:"Show the memory map of a device."`
		Bits      Bits       `cmd:"" help:"Decode a register value bit by bit."`
		ImportSVD ImportSVD  `cmd:"" help:"Convert a CMSIS-SVD file into a device definition." name:"import-svd"`
		Serve     Serve      `cmd:"" help:"Run the HTTP API."`
		Config    ShowConfig `cmd:"" help:"Print the effective configuration."`
		Version   Version    `cmd:"" help:"Show bitsmith version."`

		ConfigFile string     `name:"config" help:"${config_help}" type:"path" placeholder:"FILE"`
		Log        logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`
	}

	Version struct{}
)

var vars = kong.Vars{
	"config_help": "Configuration file. (default: <user config dir>/bitsmith/config.toml)",
	"log_help":    "Enable debug logs for specified modules.",
	"device_help": "Device definition, JSON or CMSIS-SVD (.svd, .xml).",
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("bitsmith"),
		kong.Description("Register map engine: bit ranges, wide values, array registers and memory maps."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars,
	}, options...)
	return kong.New(cli, options...)
}

func parseArgs(args []string) (*CLI, *kong.Context) {
	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	return &cli, ctx
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if ctx.Command() == "" {
		loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
		var strs []string
		for _, m := range log.ModuleNames() {
			strs = append(strs, "    - "+m)
		}

		fmt.Fprintf(ctx.Stdout, loggingHelp, strings.Join(strs, "\n"))
	}
	return nil
}

// logModMask is the --log flag. The mask is applied once the configuration
// is loaded, so that the flag takes precedence over the [log] table.
type logModMask struct {
	mask  log.ModuleMask
	nolog bool
	set   bool
}

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm *logModMask) Decode(ctx *kong.DecodeContext) error {
	var value string
	if err := ctx.Scan.PopValueInto("log", &value); err != nil {
		return err
	}

	allLogs := false
	*lm = logModMask{set: true}
	for _, v := range strings.Split(value, ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			lm.nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm.mask |= mod.Mask()
		}
	}

	if lm.nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm.mask != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		return nil
	}

	if allLogs {
		lm.mask = log.ModuleMaskAll
	}
	return nil
}

// apply enables the modules of the flag, or those of the configuration when
// the flag is absent.
func (lm *logModMask) apply(modules []string) error {
	switch {
	case lm.nolog:
		log.Disable()
		return nil
	case lm.set:
		log.EnableDebugModules(lm.mask)
		return nil
	}
	mask, err := log.ParseModules(modules)
	if err != nil {
		return err
	}
	log.EnableDebugModules(mask)
	return nil
}

type outfile struct {
	w     io.Writer
	name  string
	close func() error
}

// Decode decodes FILE|stdout|stderr into an io.WriteCloser
// that writes to that file.
//
// Implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	if err := ctx.Scan.PopValueInto("file", &f.name); err != nil {
		return err
	}
	f.close = func() error { return nil }

	switch f.name {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
