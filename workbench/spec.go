// Package workbench turns request-shaped query specifications into SQL through the
// query builder and optionally runs the result against a database.
package workbench

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gaborage/dbworkbench/database/types"
)

// ErrUnsupportedSpecFormat is returned for spec files that are neither JSON nor YAML.
var ErrUnsupportedSpecFormat = errors.New("unsupported spec file format")

// QuerySpec describes a SELECT in dialect-agnostic terms.
type QuerySpec struct {
	Dialect string          `json:"dialect,omitempty" yaml:"dialect,omitempty" validate:"omitempty,dialect"`
	Table   string          `json:"table" yaml:"table" validate:"required"`
	Columns []types.Column  `json:"columns,omitempty" yaml:"columns,omitempty" validate:"dive"`
	Joins   []types.Join    `json:"joins,omitempty" yaml:"joins,omitempty" validate:"dive"`
	Filters []types.Filter  `json:"filters,omitempty" yaml:"filters,omitempty" validate:"dive"`
	Having  []types.Filter  `json:"having,omitempty" yaml:"having,omitempty" validate:"dive"`
	GroupBy []string        `json:"groupBy,omitempty" yaml:"groupBy,omitempty" validate:"dive,required"`
	OrderBy []types.OrderBy `json:"orderBy,omitempty" yaml:"orderBy,omitempty" validate:"dive"`
	Limit   uint64          `json:"limit,omitempty" yaml:"limit,omitempty"`
	Offset  uint64          `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// LoadSpecFile reads a QuerySpec from a .json, .yaml or .yml file.
func LoadSpecFile(path string) (*QuerySpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec file: %w", err)
	}

	spec, err := ParseSpec(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// ParseSpec decodes a QuerySpec in the given format ("json", "yaml" or "yml").
// Unknown fields are rejected. JSON filter numbers are kept as json.Number.
func ParseSpec(data []byte, format string) (*QuerySpec, error) {
	var spec QuerySpec

	switch strings.ToLower(format) {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		dec.DisallowUnknownFields()
		if err := dec.Decode(&spec); err != nil {
			return nil, fmt.Errorf("decode json spec: %w", err)
		}
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&spec); err != nil {
			return nil, fmt.Errorf("decode yaml spec: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSpecFormat, format)
	}

	return &spec, nil
}
