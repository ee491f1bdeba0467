package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for catalog files that are neither YAML nor JSON.
var ErrUnknownFormat = errors.New("unknown catalog file format")

// File is the on-disk catalog layout:
//
//	databases:
//	  - name: school
//	    tables:
//	      - name: student
//	        columns:
//	          - name: id
//	            type: int
type File struct {
	Databases []Database `yaml:"databases" json:"databases"`
}

// LoadFile reads a .yaml, .yml or .json catalog file.
func LoadFile(path string) ([]Database, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	dbs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return dbs, nil
}

// Parse decodes catalog YAML. JSON documents are valid YAML and decode too.
func Parse(data []byte) ([]Database, error) {
	var f File

	err := yaml.Unmarshal(data, &f)
	if err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	for _, db := range f.Databases {
		if db.Name == "" {
			return nil, errors.New("decoding catalog: database without a name")
		}
	}

	return f.Databases, nil
}

// Marshal encodes dbs in the catalog file layout.
func Marshal(dbs []Database) ([]byte, error) {
	return yaml.Marshal(File{Databases: dbs})
}
