package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/erdraw/pkg/dbml"
	"github.com/matzehuels/erdraw/pkg/erd"
	"github.com/matzehuels/erdraw/pkg/errors"
)

// Format is a diagram source format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatDBML Format = "dbml"
)

var extensions = map[string]Format{
	".json": FormatJSON,
	".yaml": FormatYAML,
	".yml":  FormatYAML,
	".dbml": FormatDBML,
}

// DetectFormat infers the format from a file extension.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported file type %q (want .json, .yaml, .yml or .dbml)", ext)
}

// Read decodes a diagram in the given format from r.
func Read(r io.Reader, format Format) (*erd.Diagram, error) {
	var (
		d   *erd.Diagram
		err error
	)
	switch format {
	case FormatJSON:
		d, err = decodeJSON(r)
	case FormatYAML:
		d, err = decodeYAML(r)
	case FormatDBML:
		d, err = dbml.Parse(r)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format)
	}
	if err != nil {
		return nil, err
	}
	normalize(d)
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func decodeJSON(r io.Reader) (*erd.Diagram, error) {
	var d erd.Diagram
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "decode json")
	}
	return &d, nil
}

func decodeYAML(r io.Reader) (*erd.Diagram, error) {
	var d erd.Diagram
	if err := yaml.NewDecoder(r).Decode(&d); err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "decode yaml")
	}
	return &d, nil
}

// normalize fills default schemas left empty by hand-written sources.
func normalize(d *erd.Diagram) {
	for i := range d.Tables {
		d.Tables[i].ID = erd.NewTableID(d.Tables[i].ID.Schema, d.Tables[i].ID.Name)
	}
	for i := range d.Relationships {
		r := &d.Relationships[i]
		r.From.TableID = erd.NewTableID(r.From.TableID.Schema, r.From.TableID.Name)
		r.To.TableID = erd.NewTableID(r.To.TableID.Schema, r.To.TableID.Name)
	}
}

// Import reads a diagram file, detecting its format from the extension.
func Import(path string) (*erd.Diagram, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, format)
}

// Write encodes d to w as JSON or YAML.
func Write(d *erd.Diagram, w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	}
	return errors.New(errors.ErrCodeUnsupported, "cannot write %s", format)
}

// Export writes d to path in the format implied by its extension.
func Export(d *erd.Diagram, path string) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	if format == FormatDBML {
		return errors.New(errors.ErrCodeUnsupported, "cannot write %s", format)
	}
	if err := errors.ValidateOutputPath(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(d, f, format)
}
