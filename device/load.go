package device

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
)

// IsSVD reports whether path names a CMSIS-SVD file.
func IsSVD(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svd", ".xml":
		return true
	}
	return false
}

// Load reads a device definition, SVD or JSON depending on the file
// extension.
func Load(path string) (*Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read device")
	}
	if IsSVD(path) {
		return ImportSVD(bytes.NewReader(data))
	}
	return DecodeJSON(data)
}
