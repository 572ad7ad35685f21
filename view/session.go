package view

import (
	"strconv"
	"strings"

	"bitsmith/diag"
	"bitsmith/log"
	"bitsmith/wide"
)

// SessionHelp describes the commands accepted by Session.Exec.
const SessionHelp = `commands:
  t BIT          toggle a bit (0 is the LSB)
  s VALUE        set the register value
  f FIELD VALUE  set a field value
  w VALUE        write VALUE following the access modes
  p VALUE        preview a write without storing it
  fmt FORMAT     input format: hex, decimal or binary
  r              restore the reset value
  q              quit`

// Session drives a BitViewer from text commands, one per line.
type Session struct {
	*BitViewer
	Format wide.Format // format of VALUE arguments

	// Previewed holds the state computed by the last "p" command, if any.
	Previewed *State
}

func NewSession(bv *BitViewer, f wide.Format) *Session {
	return &Session{BitViewer: bv, Format: f}
}

// Exec runs one command line. It returns quit=true on the quit command.
// Errors are reported but never leave the viewer in an invalid state.
func (s *Session) Exec(line string) (quit bool, err error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false, nil
	}
	s.Previewed = nil

	cmd, args := strings.ToLower(args[0]), args[1:]
	defer func() {
		if err != nil {
			log.ModBits.DebugZ("command failed").String("cmd", cmd).Error("err", err).End()
		}
	}()

	switch cmd {
	case "q", "quit", "exit":
		return true, nil
	case "r", "reset":
		s.Reset()
		return false, nil
	case "t", "toggle":
		if len(args) != 1 {
			return false, diag.Parsef("usage: t BIT")
		}
		bit, err := strconv.Atoi(args[0])
		if err != nil {
			return false, diag.Parsef("invalid bit index %q", args[0])
		}
		return false, s.Toggle(bit)
	case "s", "set":
		if len(args) != 1 {
			return false, diag.Parsef("usage: s VALUE")
		}
		return false, s.Set(args[0], s.Format)
	case "f", "field":
		if len(args) != 2 {
			return false, diag.Parsef("usage: f FIELD VALUE")
		}
		return false, s.SetField(args[0], args[1], s.Format)
	case "w", "write", "p", "preview":
		if len(args) != 1 {
			return false, diag.Parsef("usage: %s VALUE", cmd)
		}
		v, err := wide.Parse(args[0], s.Format, s.reg.Width)
		if err != nil {
			return false, err
		}
		if cmd[0] == 'w' {
			s.Write(&v)
		} else {
			st := s.Preview(&v)
			s.Previewed = &st
		}
		return false, nil
	case "fmt", "format":
		if len(args) != 1 {
			return false, diag.Parsef("usage: fmt FORMAT")
		}
		f, err := wide.ParseFormat(args[0])
		if err != nil {
			return false, diag.Parsef("%v", err)
		}
		s.Format = f
		return false, nil
	}
	return false, diag.Parsef("unknown command %q", cmd)
}
