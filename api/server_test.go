package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/jx"
	"github.com/google/go-cmp/cmp"

	"bitsmith/memmap"
)

const deviceJSON = `{
  "name": "MCU",
  "peripherals": [
    {
      "name": "GPIO",
      "baseAddress": "0x0",
      "size": "0x100",
      "registers": [
        {"name": "CR", "width": 32, "addressOffset": 0, "resetValue": "0x1"},
        {"name": "CH", "width": 16, "addressOffset": "0x10",
         "isArray": true, "arrayCount": 2, "arrayStride": 4, "namePattern": "%s_%d"}
      ]
    },
    {"name": "UART", "baseAddress": "0x1000", "size": "0x100"}
  ]
}`

const overlapJSON = `{
  "name": "MCU",
  "peripherals": [{
    "name": "GPIO", "baseAddress": 0, "size": 16,
    "registers": [{
      "name": "CR", "width": 8, "addressOffset": 0,
      "fields": [{"name": "HI", "bits": "7:4"}, {"name": "LO", "bits": "5:0"}]
    }]
  }]
}`

type response struct {
	status int
	body   []byte
}

func do(t *testing.T, method, target, body string) response {
	t.Helper()
	srv := New(memmap.DefaultOptions())
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	data, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatal(err)
	}
	return response{status: rec.Code, body: data}
}

// issueKinds returns "kind@path" for every issue of an error response.
func issueKinds(t *testing.T, body []byte) []string {
	t.Helper()
	var out []string
	err := jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
		if key != "issues" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			var kind, path string
			err := d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "kind":
					kind, err = d.Str()
				case "path":
					path, err = d.Str()
				default:
					err = d.Skip()
				}
				return err
			})
			out = append(out, kind+"@"+path)
			return err
		})
	})
	if err != nil {
		t.Fatalf("decode issues: %v\n%s", err, body)
	}
	return out
}

func TestHealth(t *testing.T) {
	r := do(t, http.MethodGet, "/healthz", "")
	if r.status != http.StatusOK || !strings.Contains(string(r.body), `"ok"`) {
		t.Errorf("GET /healthz = %d %s", r.status, r.body)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantIssues []string // kind@path prefixes
	}{
		{
			name:       "valid",
			body:       deviceJSON,
			wantStatus: http.StatusOK,
		},
		{
			name:       "overlap",
			body:       overlapJSON,
			wantStatus: http.StatusUnprocessableEntity,
			wantIssues: []string{"overlap_error@peripherals[0].registers[0].fields[1]"},
		},
		{
			name:       "schema",
			body:       `{"name": "MCU", "peripherals": [{"name": "GPIO", "size": 4}]}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantIssues: []string{"parse_error@peripherals[0].baseAddress"},
		},
		{
			name:       "malformed",
			body:       `{"name": `,
			wantStatus: http.StatusBadRequest,
			wantIssues: []string{"parse_error@"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := do(t, http.MethodPost, "/api/v1/validate", tt.body)
			if r.status != tt.wantStatus {
				t.Fatalf("status = %d, want %d\n%s", r.status, tt.wantStatus, r.body)
			}
			got := issueKinds(t, r.body)
			if len(got) < len(tt.wantIssues) || (len(tt.wantIssues) == 0 && len(got) > 0) {
				t.Fatalf("issues = %v, want %v", got, tt.wantIssues)
			}
			for i := range tt.wantIssues {
				if !strings.HasPrefix(got[i], tt.wantIssues[i]) {
					t.Errorf("issue %d = %s, want %s", i, got[i], tt.wantIssues[i])
				}
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	if r := do(t, http.MethodGet, "/api/v1/validate", ""); r.status != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/v1/validate = %d", r.status)
	}
}

func TestRows(t *testing.T) {
	r := do(t, http.MethodPost, "/api/v1/rows", deviceJSON)
	if r.status != http.StatusOK {
		t.Fatalf("status = %d\n%s", r.status, r.body)
	}

	var names, addrs []string
	err := jx.DecodeBytes(r.body).Obj(func(d *jx.Decoder, key string) error {
		if key != "rows" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			return d.Obj(func(d *jx.Decoder, key string) error {
				var (
					s   string
					err error
				)
				switch key {
				case "name":
					s, err = d.Str()
					names = append(names, s)
				case "address":
					s, err = d.Str()
					addrs = append(addrs, s)
				default:
					err = d.Skip()
				}
				return err
			})
		})
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"CR", "CH_0", "CH_1"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"0x00000000", "0x00000010", "0x00000014"}, addrs); diff != "" {
		t.Errorf("addresses mismatch (-want +got):\n%s", diff)
	}
}

// segmentWidths returns the width percentages of the layout segments.
func segmentWidths(t *testing.T, body []byte) []float64 {
	t.Helper()
	var widths []float64
	err := jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
		if key != "segments" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			return d.Obj(func(d *jx.Decoder, key string) error {
				if key != "width" {
					return d.Skip()
				}
				w, err := d.Float64()
				widths = append(widths, w)
				return err
			})
		})
	})
	if err != nil {
		t.Fatalf("decode layout: %v\n%s", err, body)
	}
	return widths
}

func TestLayout(t *testing.T) {
	r := do(t, http.MethodPost, "/api/v1/layout", deviceJSON)
	if r.status != http.StatusOK {
		t.Fatalf("status = %d\n%s", r.status, r.body)
	}
	def := segmentWidths(t, r.body)
	if len(def) != 3 {
		t.Fatalf("got %d segments, want 3", len(def))
	}
	if !(def[1] > 0 && def[1] < def[0]) {
		t.Errorf("gap width %v should be positive and below the peripheral width %v", def[1], def[0])
	}

	r = do(t, http.MethodPost, "/api/v1/layout?gap_scale=0", deviceJSON)
	if w := segmentWidths(t, r.body); len(w) != 3 || w[1] != 0 {
		t.Errorf("gap_scale=0 widths = %v", w)
	}

	for _, query := range []string{"min_width=abc", "min_width=Inf", "gap_scale=NaN", "gap_scale=-1"} {
		r = do(t, http.MethodPost, "/api/v1/layout?"+query, deviceJSON)
		if r.status != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400\n%s", query, r.status, r.body)
		}
	}
}

func TestBits(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantHex    string
		wantInput  bool
		wantIssues []string
	}{
		{
			name:       "extract",
			body:       `{"width": 32, "value": "F0F0F0F0", "format": "hex", "fields": [{"name": "LOW", "bits": "7:0"}]}`,
			wantStatus: http.StatusOK,
			wantHex:    "F0F0F0F0",
		},
		{
			name:       "toggle",
			body:       `{"width": 8, "value": "0", "format": "hex", "toggle": [0, 7]}`,
			wantStatus: http.StatusOK,
			wantHex:    "81",
		},
		{
			name:       "invalid value resets",
			body:       `{"width": 8, "value": "xyz", "format": "hex"}`,
			wantStatus: http.StatusOK,
			wantHex:    "00",
			wantInput:  true,
		},
		{
			name:       "write preview",
			body:       `{"width": 8, "value": "FF", "format": "hex", "fields": [{"name": "F", "bits": "0", "access": "W1C"}], "write": "01"}`,
			wantStatus: http.StatusOK,
			wantHex:    "00",
		},
		{
			name:       "overlapping fields",
			body:       `{"width": 8, "value": "F0", "fields": [{"name": "A", "bits": "7:4"}, {"name": "B", "bits": "5:0"}]}`,
			wantStatus: http.StatusOK,
			wantHex:    "F0",
			wantIssues: []string{"overlap_error"},
		},
		{
			name:       "bad width",
			body:       `{"width": 12, "value": "0"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "toggle out of range",
			body:       `{"width": 8, "toggle": [8]}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "wrong type",
			body:       `{"width": "eight"}`,
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := do(t, http.MethodPost, "/api/v1/bits", tt.body)
			if r.status != tt.wantStatus {
				t.Fatalf("status = %d, want %d\n%s", r.status, tt.wantStatus, r.body)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var (
				hex      string
				inputErr bool
				issues   []string
			)
			err := jx.DecodeBytes(r.body).Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "inputError":
					inputErr = true
					return d.Skip()
				case "issues":
					return d.Arr(func(d *jx.Decoder) error {
						return d.Obj(func(d *jx.Decoder, key string) error {
							if key != "kind" {
								return d.Skip()
							}
							kind, err := d.Str()
							issues = append(issues, kind)
							return err
						})
					})
				case "state":
					return d.Obj(func(d *jx.Decoder, key string) error {
						if key != "value" {
							return d.Skip()
						}
						return d.Obj(func(d *jx.Decoder, key string) error {
							if key != "hex" {
								return d.Skip()
							}
							var err error
							hex, err = d.Str()
							return err
						})
					})
				}
				return d.Skip()
			})
			if err != nil {
				t.Fatal(err)
			}
			if hex != tt.wantHex || inputErr != tt.wantInput {
				t.Errorf("hex %q input error %v, want %q %v", hex, inputErr, tt.wantHex, tt.wantInput)
			}
			if diff := cmp.Diff(tt.wantIssues, issues); diff != "" {
				t.Errorf("issues mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
