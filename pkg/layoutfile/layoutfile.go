package layoutfile

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/erdraw/pkg/erd"
	"github.com/matzehuels/erdraw/pkg/errors"
)

// Version is the layout file format version written by [Write].
const Version = 1

// Extension replaces the source file's extension to form the default
// layout path.
const Extension = ".layout.toml"

// Sentinel errors for layout operations.
var (
	// ErrNotFound is returned when no layout exists for a key or path.
	ErrNotFound = stderrors.New("layout not found")

	// ErrUnsupportedVersion is returned for files written by a newer format.
	ErrUnsupportedVersion = stderrors.New("unsupported layout version")
)

// Meta is the [meta] section of a layout file.
type Meta struct {
	Version int    `toml:"version" json:"version"`
	Source  string `toml:"source" json:"source"`
}

// File is a saved set of table positions keyed by "schema.name".
type File struct {
	Meta   Meta                 `toml:"meta" json:"meta"`
	Tables map[string]erd.Point `toml:"tables" json:"tables"`
}

// New returns an empty layout for the named source file.
func New(source string) *File {
	return &File{
		Meta:   Meta{Version: Version, Source: source},
		Tables: make(map[string]erd.Point),
	}
}

// DefaultPath returns the layout path for a source file: the source path
// with its extension replaced by ".layout.toml".
func DefaultPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + Extension
}

// Set records a table position.
func (f *File) Set(key string, p erd.Point) {
	if f.Tables == nil {
		f.Tables = make(map[string]erd.Point)
	}
	f.Tables[key] = p
}

// Merge records every position in ps, overwriting existing entries.
func (f *File) Merge(ps map[string]erd.Point) {
	for k, p := range ps {
		f.Set(k, p)
	}
}

// Keys returns the table keys in sorted order.
func (f *File) Keys() []string {
	keys := make([]string, 0, len(f.Tables))
	for k := range f.Tables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Apply sets the position of every diagram table that has an entry in f and
// returns the number of tables placed. Entries with non-finite coordinates
// and entries naming unknown tables are ignored. Tables without an entry
// keep their current position.
func Apply(d *erd.Diagram, f *File) int {
	if f == nil {
		return 0
	}
	n := 0
	for i := range d.Tables {
		t := &d.Tables[i]
		p, ok := f.Tables[t.ID.FullName()]
		if !ok || !finite(p) {
			continue
		}
		t.SetPosition(p.X, p.Y)
		n++
	}
	return n
}

// Snapshot collects the positions of all placed tables in d.
func Snapshot(d *erd.Diagram, source string) *File {
	f := New(source)
	f.Merge(d.Positions())
	return f
}

func finite(p erd.Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Decode parses a layout file from r.
func Decode(r io.Reader) (*File, error) {
	var f File
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, err
	}
	if f.Meta.Version > Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, f.Meta.Version)
	}
	if f.Tables == nil {
		f.Tables = make(map[string]erd.Point)
	}
	return &f, nil
}

// Encode writes f to w in TOML form.
func Encode(w io.Writer, f *File) error {
	return toml.NewEncoder(w).Encode(f)
}

// Read loads a layout file. A missing file yields an error wrapping
// [ErrNotFound].
func Read(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeLayoutFile, ErrNotFound, "read %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeLayoutFile, err, "read %s", path)
	}
	defer fh.Close()

	f, err := Decode(fh)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFile, err, "parse %s", path)
	}
	return f, nil
}

// Write stores f at path, replacing any existing file.
func Write(path string, f *File) error {
	if err := errors.ValidateOutputPath(path); err != nil {
		return err
	}
	fh, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeLayoutFile, err, "write %s", path)
	}
	if err := Encode(fh, f); err != nil {
		fh.Close()
		return errors.Wrap(errors.ErrCodeLayoutFile, err, "serialize layout")
	}
	if err := fh.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeLayoutFile, err, "write %s", path)
	}
	return nil
}
