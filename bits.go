package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/mattn/go-tty"

	"bitsmith/device"
	"bitsmith/diag"
	"bitsmith/view"
	"bitsmith/wide"
)

type Bits struct {
	File     string `arg:"" name:"file" help:"${device_help}" optional:"" type:"existingfile"`
	Register string `name:"register" short:"r" help:"Register to show, as PERIPHERAL.REGISTER. (with a device file)" placeholder:"PERIPH.REG"`

	Width  int         `name:"width" help:"Register width in bits. (without a device file)" default:"32"`
	Fields []string    `name:"field" help:"Register field. (without a device file)" placeholder:"NAME=H:L"`
	Access string      `name:"access" help:"Register access mode. (without a device file)" placeholder:"MODE"`
	Value  string      `name:"value" help:"Register value. (default: reset value)"`
	Format wide.Format `name:"format" help:"Format of values: hex, decimal or binary." default:"hex"`

	Toggle      []int  `name:"toggle" help:"Bits to toggle, 0 being the LSB."`
	Write       string `name:"write" help:"Show the register after this value is written to it."`
	Interactive bool   `name:"interactive" short:"i" help:"Edit the value interactively."`
	JSON        bool   `name:"json" help:"Print JSON instead of text."`
}

// register returns the register to show, from the device file or built from
// the flags.
func (b *Bits) register() (*device.Register, error) {
	if b.File != "" {
		if b.Register == "" {
			return nil, errors.New("--register is required with a device file")
		}
		dev, err := device.Load(b.File)
		if err != nil {
			return nil, err
		}
		_, inst, err := dev.FindInstance(b.Register)
		if err != nil {
			return nil, err
		}
		return inst.Template, nil
	}

	reg := &device.Register{Name: "register", Width: b.Width}
	var err error
	if reg.Access, err = device.ParseAccess(b.Access); err != nil {
		return nil, err
	}
	for _, spec := range b.Fields {
		name, bits, ok := strings.Cut(spec, "=")
		if !ok || name == "" {
			return nil, diag.Parsef("field %q is not NAME=H:L", spec)
		}
		reg.Fields = append(reg.Fields, &device.Field{Name: name, Bits: bits})
	}
	return reg, nil
}

func (b *Bits) Run(a *app) error {
	reg, err := b.register()
	if err != nil {
		return err
	}
	if issues := device.ValidateRegister(reg); len(issues) > 0 {
		prefix := "warning: "
		if issues.Fatal() {
			prefix = ""
		}
		for _, iss := range issues {
			fmt.Fprintf(a.stderr, "%s%s: %s\n", prefix, reg.Name, iss)
		}
		if issues.Fatal() {
			return errBlocking
		}
	}

	bv, err := view.NewBitViewer(reg)
	if err != nil {
		return err
	}
	if b.Value != "" {
		if err := bv.Set(b.Value, b.Format); err != nil {
			fmt.Fprintf(a.stderr, "warning: %v, value reset to zero\n", err)
		}
	}
	for _, bit := range b.Toggle {
		if err := bv.Toggle(bit); err != nil {
			return err
		}
	}

	if b.Interactive {
		return b.interactive(bv)
	}

	st := bv.State()
	if b.Write != "" {
		w, err := wide.Parse(b.Write, b.Format, reg.Width)
		if err != nil {
			return errors.Wrap(err, "--write")
		}
		st = bv.Preview(&w)
	}

	if b.JSON {
		var e jx.Encoder
		e.SetIdent(2)
		st.Encode(&e)
		_, err := fmt.Fprintf(a.stdout, "%s\n", e.Bytes())
		return err
	}
	return printState(a.stdout, st)
}

// interactive runs a command loop on the terminal until the user quits.
func (b *Bits) interactive(bv *view.BitViewer) error {
	t, err := tty.Open()
	if err != nil {
		return errors.Wrap(err, "open terminal")
	}
	defer t.Close()

	out := t.Output()
	s := view.NewSession(bv, b.Format)
	fmt.Fprintln(out, view.SessionHelp)
	for {
		fmt.Fprintln(out)
		if err := printState(out, bv.State()); err != nil {
			return err
		}
		fmt.Fprintf(out, "[%s]> ", s.Format)

		line, err := t.ReadString()
		if err != nil {
			return errors.Wrap(err, "read command")
		}
		quit, err := s.Exec(line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
		if s.Previewed != nil {
			fmt.Fprintln(out, "\nafter write:")
			if err := printState(out, *s.Previewed); err != nil {
				return err
			}
		}
	}
}

// groupBits separates binary digits in groups of 4, from the LSB.
func groupBits(bin string) string {
	var sb strings.Builder
	for i, c := range bin {
		if i > 0 && (len(bin)-i)%4 == 0 {
			sb.WriteByte(' ')
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

func printState(w io.Writer, st view.State) error {
	fmt.Fprintf(w, "%s (%d bits)\n", st.Register, st.Width)
	fmt.Fprintf(w, "  hex      0x%s\n", st.Value.Hex)
	fmt.Fprintf(w, "  decimal  %s\n", st.Value.Decimal)
	fmt.Fprintf(w, "  binary   %s\n", groupBits(st.Value.Binary))

	if len(st.Fields) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FIELD\tBITS\tACCESS\tHEX\tDECIMAL\tBINARY\tVALUE")
		for _, f := range st.Fields {
			fmt.Fprintf(tw, "%s\t%s\t%s\t0x%s\t%s\t%s\t%s\n",
				f.Name, f.Range, f.Access.Short(), f.Value.Hex, f.Value.Decimal, f.Value.Binary, f.Enum)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(st.Unassigned) > 0 {
		ranges := make([]string, len(st.Unassigned))
		for i, r := range st.Unassigned {
			ranges[i] = r.String()
		}
		fmt.Fprintf(w, "unassigned bits: %s\n", strings.Join(ranges, ", "))
	}
	return nil
}
