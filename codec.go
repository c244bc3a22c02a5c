package rangepool

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/ygrebnov/errorc"
	"gopkg.in/yaml.v3"
)

// Format selects a snapshot encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat maps "json", "yaml" or "yml" (any case) to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return 0, errorc.With(ErrInvalidArgument, errorc.String("format", fmt.Sprintf("unsupported snapshot format %q", s)))
	}
}

const snapshotSchemaURL = "https://github.com/ygrebnov/rangepool/snapshot.schema.json"

const snapshotSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["length", "workers"],
  "additionalProperties": false,
  "properties": {
    "length": {"type": "integer", "minimum": 0},
    "workers": {"type": "array", "items": {"$ref": "#/definitions/worker"}}
  },
  "definitions": {
    "worker": {
      "type": "object",
      "required": ["active", "start", "limit", "current"],
      "additionalProperties": false,
      "properties": {
        "active": {"type": "boolean"},
        "start": {"type": "integer", "minimum": 0},
        "limit": {"type": "integer", "minimum": 1},
        "current": {"type": "integer", "minimum": 0}
      }
    }
  }
}`

var compileSnapshotSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(snapshotSchemaURL, strings.NewReader(snapshotSchema)); err != nil {
		return nil, fmt.Errorf("add snapshot schema: %w", err)
	}
	return compiler.Compile(snapshotSchemaURL)
})

// EncodeSnapshot writes s to w in the given format.
func EncodeSnapshot(w io.Writer, s PoolSnapshot, f Format) error {
	if s.Workers == nil {
		s.Workers = []WorkerSnapshot{}
	}

	switch f {
	case FormatJSON:
		return json.NewEncoder(w).Encode(s)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errorc.With(ErrInvalidArgument, errorc.String("format", f.String()))
	}
}

// DecodeSnapshot reads a snapshot in the given format and validates it.
// JSON input is checked against the snapshot JSON Schema first; YAML input must not
// carry unknown keys. Any malformed input is reported as ErrInvalidSnapshot.
func DecodeSnapshot(r io.Reader, f Format) (PoolSnapshot, error) {
	var s PoolSnapshot

	switch f {
	case FormatJSON:
		data, err := io.ReadAll(r)
		if err != nil {
			return PoolSnapshot{}, err
		}
		if err := validateJSONSnapshot(data); err != nil {
			return PoolSnapshot{}, err
		}
		if err := json.Unmarshal(data, &s); err != nil {
			return PoolSnapshot{}, errorc.With(ErrInvalidSnapshot, errorc.String("json", err.Error()))
		}

	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil {
			if errors.Is(err, io.EOF) {
				return PoolSnapshot{}, errorc.With(ErrInvalidSnapshot, errorc.String("yaml", "empty document"))
			}
			return PoolSnapshot{}, errorc.With(ErrInvalidSnapshot, errorc.String("yaml", err.Error()))
		}

	default:
		return PoolSnapshot{}, errorc.With(ErrInvalidArgument, errorc.String("format", f.String()))
	}

	if err := s.Validate(); err != nil {
		return PoolSnapshot{}, err
	}
	return s, nil
}

func validateJSONSnapshot(data []byte) error {
	schema, err := compileSnapshotSchema()
	if err != nil {
		return err
	}

	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return errorc.With(ErrInvalidSnapshot, errorc.String("json", err.Error()))
	}

	if err := schema.Validate(doc); err != nil {
		return errorc.With(ErrInvalidSnapshot, errorc.String("schema", schemaErrorMessage(err)))
	}
	return nil
}

// schemaErrorMessage reduces a validation error to its first leaf cause.
func schemaErrorMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve.InstanceLocation + ": " + ve.Message
}

// WriteSnapshot encodes the pool's snapshot to w.
func (p *Pool) WriteSnapshot(w io.Writer, f Format) error {
	return EncodeSnapshot(w, p.Serialize(), f)
}

// ReadPool decodes a snapshot from r and restores a pool from it.
func ReadPool(r io.Reader, f Format, opts ...Option) (*Pool, error) {
	s, err := DecodeSnapshot(r, f)
	if err != nil {
		return nil, err
	}
	return Restore(s, opts...)
}
