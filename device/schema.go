package device

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/go-faster/errors"

	"bitsmith/diag"
	"bitsmith/log"
)

//go:embed schema.cue
var schemaSrc []byte

// Schema checks raw device payloads against the embedded CUE definition
// before they are decoded. A cue.Context is not safe for concurrent use, so
// checks are serialized.
type Schema struct {
	mu     sync.Mutex
	ctx    *cue.Context
	device cue.Value
}

// NewSchema compiles the embedded device schema.
func NewSchema() (*Schema, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaSrc)
	if err := schema.Err(); err != nil {
		return nil, errors.Wrap(err, "compile device schema")
	}
	def := schema.LookupPath(cue.ParsePath("#Device"))
	if err := def.Err(); err != nil {
		return nil, errors.Wrap(err, "lookup #Device")
	}
	return &Schema{ctx: ctx, device: def}, nil
}

var defaultSchema = sync.OnceValue(func() *Schema {
	s, err := NewSchema()
	if err != nil {
		// The schema is embedded, failing to compile it is a build defect.
		panic(err)
	}
	return s
})

// CheckSchema checks data with the default schema.
func CheckSchema(data []byte) diag.List {
	return defaultSchema().Check(data)
}

// Check returns one ParseError per schema violation, keyed by the JSON path
// of the offending value. Malformed JSON yields a single issue.
func (s *Schema) Check(data []byte) diag.List {
	s.mu.Lock()
	defer s.mu.Unlock()

	var issues diag.List
	v := s.ctx.CompileBytes(data)
	if err := v.Err(); err != nil {
		issues.Add("", diag.Parsef("malformed device definition: %s", firstLine(err.Error())))
		return issues
	}

	err := s.device.Unify(v).Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		issues.Add(jsonPath(e.Path()), diag.Parsef("%s", fmt.Sprintf(format, args...)))
	}
	log.ModDevice.DebugZ("schema check failed").
		Int("issues", len(issues)).
		End()
	return issues
}

// jsonPath turns a CUE path (["peripherals", "0", "name"]) into the path
// notation used by diag ("peripherals[0].name").
func jsonPath(sel []string) string {
	var sb strings.Builder
	for _, s := range sel {
		if strings.HasPrefix(s, "#") {
			continue
		}
		if _, err := strconv.Atoi(s); err == nil {
			sb.WriteString("[" + s + "]")
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(strings.Trim(s, `"`))
	}
	return sb.String()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
