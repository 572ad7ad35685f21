// Package diag holds the structured issues reported by the register engine.
//
// Engine functions never abort on bad input. They return an *Issue (which
// implements error) or accumulate a List keyed by the path of the offending
// element, so that callers can render field-level feedback.
package diag

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
)

// Kind is a stable, machine-readable issue category.
type Kind uint8

//go:generate go tool stringer -type=Kind -linecomment

const (
	// ParseError reports malformed textual input.
	ParseError Kind = iota + 1 // parse_error
	// RangeError reports a value or bit position outside its valid domain.
	RangeError // range_error
	// OverlapError reports two fields claiming the same bits.
	OverlapError // overlap_error
	// Precision reports a wide value reduced to fit float64 layout math. It
	// is a warning, not an error.
	Precision // precision
)

// IsWarning reports whether issues of this kind are informational only.
func (k Kind) IsWarning() bool { return k == Precision }

// IsFatal reports whether issues of this kind prevent an element from being
// displayed at all. Overlapping fields can still be shown.
func (k Kind) IsFatal() bool { return k == ParseError || k == RangeError }

// Issue is a single problem, optionally attached to an element path such as
// "peripherals[0].registers[2].fields[1]".
type Issue struct {
	Kind Kind
	Path string
	Msg  string
}

func (i *Issue) Error() string {
	if i.Path == "" {
		return i.Kind.String() + ": " + i.Msg
	}
	return i.Path + ": " + i.Kind.String() + ": " + i.Msg
}

// At returns a copy of the issue attached to path. An existing path is kept
// as a suffix so that nested callers can prefix their own location.
func (i *Issue) At(path string) *Issue {
	cp := *i
	switch {
	case path == "":
	case cp.Path == "":
		cp.Path = path
	case strings.HasPrefix(cp.Path, "["):
		cp.Path = path + cp.Path
	default:
		cp.Path = path + "." + cp.Path
	}
	return &cp
}

func newf(k Kind, format string, args ...any) *Issue {
	return &Issue{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

func Parsef(format string, args ...any) *Issue   { return newf(ParseError, format, args...) }
func Rangef(format string, args ...any) *Issue   { return newf(RangeError, format, args...) }
func Overlapf(format string, args ...any) *Issue { return newf(OverlapError, format, args...) }
func Precisionf(format string, args ...any) *Issue {
	return newf(Precision, format, args...)
}

// KindOf extracts the issue kind of err, if err is or wraps an *Issue.
func KindOf(err error) (Kind, bool) {
	var iss *Issue
	if errors.As(err, &iss) {
		return iss.Kind, true
	}
	return 0, false
}

// List is an ordered collection of issues.
type List []*Issue

// Add appends err to the list, attached to path. Errors which are not issues
// are recorded as parse errors, since they come from decoding.
func (l *List) Add(path string, err error) {
	if err == nil {
		return
	}
	var iss *Issue
	if !errors.As(err, &iss) {
		iss = &Issue{Kind: ParseError, Msg: err.Error()}
	}
	*l = append(*l, iss.At(path))
}

// Append adds all issues of other, each attached to path.
func (l *List) Append(path string, other List) {
	for _, iss := range other {
		*l = append(*l, iss.At(path))
	}
}

// Blocking reports whether the list contains at least one error, that is an
// issue which must prevent the configuration from being saved.
func (l List) Blocking() bool {
	for _, iss := range l {
		if !iss.Kind.IsWarning() {
			return true
		}
	}
	return false
}

// Fatal reports whether the list contains an issue which prevents the
// element from being displayed. Blocking lists without fatal issues may
// still be shown, not saved.
func (l List) Fatal() bool {
	for _, iss := range l {
		if iss.Kind.IsFatal() {
			return true
		}
	}
	return false
}

// Errors returns the issues that are not warnings.
func (l List) Errors() List {
	var out List
	for _, iss := range l {
		if !iss.Kind.IsWarning() {
			out = append(out, iss)
		}
	}
	return out
}

// Warnings returns the informational issues.
func (l List) Warnings() List {
	var out List
	for _, iss := range l {
		if iss.Kind.IsWarning() {
			out = append(out, iss)
		}
	}
	return out
}

// Err returns the list as an error if it contains blocking issues, else nil.
func (l List) Err() error {
	if !l.Blocking() {
		return nil
	}
	return l
}

func (l List) Error() string {
	var sb strings.Builder
	for i, iss := range l {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(iss.Error())
	}
	return sb.String()
}
