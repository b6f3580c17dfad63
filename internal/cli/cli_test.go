package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/erdraw/pkg/cache"
	"github.com/matzehuels/erdraw/pkg/layoutfile"
	"github.com/matzehuels/erdraw/pkg/pipeline"
)

const testSchema = `Table users {
  id int [pk]
}

Table posts {
  id int [pk]
  user_id int [ref: > users.id]
}
`

func writeSchema(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.dbml")
	if err := os.WriteFile(path, []byte(testSchema), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	return execCLI(args...)
}

// execCLI runs the root command against the current XDG_CACHE_HOME.
func execCLI(args ...string) error {
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single format", "png", []string{"png"}},
		{"multiple formats", "svg,dot,json", []string{"svg", "dot", "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, parseFormats(tt.input)); diff != "" {
				t.Errorf("parseFormats(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "db/schema.dbml", "db/schema"},
		{"out/erd.svg", "schema.dbml", "out/erd"},
		{"out/erd.dot", "schema.dbml", "out/erd"},
		{"out/erd", "schema.dbml", "out/erd"},
		{"out/erd.v2", "schema.dbml", "out/erd.v2"},
	}

	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestWriteArtifacts(t *testing.T) {
	artifacts := map[string][]byte{"svg": []byte("<svg/>"), "dot": []byte("digraph G {}")}

	t.Run("multiple formats share a base", func(t *testing.T) {
		dir := t.TempDir()
		err := writeArtifacts(artifactWriteParams{
			artifacts: artifacts,
			formats:   []string{"svg", "dot"},
			input:     filepath.Join(dir, "schema.dbml"),
		})
		if err != nil {
			t.Fatal(err)
		}
		for _, name := range []string{"schema.svg", "schema.dot"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
				t.Errorf("missing %s: %v", name, err)
			}
		}
	})

	t.Run("single format uses output verbatim", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "diagram.image")
		err := writeArtifacts(artifactWriteParams{
			artifacts: artifacts,
			formats:   []string{"svg"},
			input:     "schema.dbml",
			output:    out,
		})
		if err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(out)
		if err != nil || string(data) != "<svg/>" {
			t.Errorf("read %s = %q, %v", out, data, err)
		}
	})

	t.Run("stdout", func(t *testing.T) {
		var buf bytes.Buffer
		err := writeArtifacts(artifactWriteParams{
			artifacts: artifacts,
			formats:   []string{"dot"},
			output:    "-",
			stdout:    &buf,
		})
		if err != nil {
			t.Fatal(err)
		}
		if buf.String() != "digraph G {}" {
			t.Errorf("stdout = %q", buf.String())
		}
	})

	t.Run("stdout needs one format", func(t *testing.T) {
		err := writeArtifacts(artifactWriteParams{
			artifacts: artifacts,
			formats:   []string{"svg", "dot"},
			output:    "-",
		})
		if err == nil {
			t.Error("expected error for multiple formats on stdout")
		}
	})
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "erdraw.toml")
	content := "spacing_x = 250.0\nspacing_y = 120.0\nmeasurer = \"fixed\"\nformats = [\"png\"]\n"
	if err := os.WriteFile(cfg, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := pipeline.Options{}
	setCLIDefaults(&opts)
	cmd := &cobra.Command{Use: "test"}
	layoutFlags(cmd, &opts)
	if err := cmd.ParseFlags([]string{"--spacing-y", "90"}); err != nil {
		t.Fatal(err)
	}

	if err := loadConfig(cmd, cfg, &opts); err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if opts.SpacingX != 250 {
		t.Errorf("SpacingX = %v, want 250 from config", opts.SpacingX)
	}
	if opts.SpacingY != 90 {
		t.Errorf("SpacingY = %v, want 90 from flag", opts.SpacingY)
	}
	if opts.Measurer != pipeline.MeasurerFixed {
		t.Errorf("Measurer = %q", opts.Measurer)
	}
	if diff := cmp.Diff([]string{"png"}, opts.Formats); diff != "" {
		t.Errorf("Formats mismatch (-want +got):\n%s", diff)
	}

	if err := loadConfig(cmd, filepath.Join(dir, "missing.toml"), &opts); err == nil {
		t.Error("expected error for missing config")
	}
	if err := loadConfig(cmd, "", &opts); err != nil {
		t.Errorf("empty path should be a no-op: %v", err)
	}
}

func TestCacheCommands(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)
	input := writeSchema(t)

	if err := execCLI("cache", "clear"); err != nil {
		t.Fatalf("clear on empty cache: %v", err)
	}
	if err := execCLI("render", input, "--measurer", "fixed", "-f", "svg,json"); err != nil {
		t.Fatalf("render: %v", err)
	}

	fc, err := cache.NewFileCache(filepath.Join(xdg, "erdraw"))
	if err != nil {
		t.Fatal(err)
	}
	counts := func() map[cache.Stage]int {
		usage, err := fc.Usage()
		if err != nil {
			t.Fatal(err)
		}
		out := make(map[cache.Stage]int)
		for _, u := range usage {
			out[u.Stage] = u.Entries
		}
		return out
	}
	want := map[cache.Stage]int{cache.StageLayout: 1, cache.StageArtifact: 2}
	if diff := cmp.Diff(want, counts()); diff != "" {
		t.Fatalf("usage after render (-want +got):\n%s", diff)
	}

	if err := execCLI("cache", "info"); err != nil {
		t.Errorf("info: %v", err)
	}
	if err := execCLI("cache", "clear", "--stage", "tower"); err == nil {
		t.Error("unknown stage should fail")
	}
	if err := execCLI("cache", "clear", "--stage", "layout"); err != nil {
		t.Fatalf("clear --stage layout: %v", err)
	}
	want = map[cache.Stage]int{cache.StageLayout: 0, cache.StageArtifact: 2}
	if diff := cmp.Diff(want, counts()); diff != "" {
		t.Errorf("usage after clearing layouts (-want +got):\n%s", diff)
	}
	if err := execCLI("cache", "prune"); err != nil {
		t.Errorf("prune: %v", err)
	}
	if err := execCLI("cache", "clear"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	want = map[cache.Stage]int{cache.StageLayout: 0, cache.StageArtifact: 0}
	if diff := cmp.Diff(want, counts()); diff != "" {
		t.Errorf("usage after clear (-want +got):\n%s", diff)
	}
}

func TestStatParts(t *testing.T) {
	got := statParts(pipeline.Stats{TableCount: 1, RelationshipCount: 2, Restored: 1},
		pipeline.CacheInfo{LayoutHit: true}, true)
	for i, want := range []string{"1 table", "2 relationships", "1 restored", "layout cached", "render fresh"} {
		if i >= len(got) || !strings.Contains(got[i], want) {
			t.Errorf("part %d = %q, want %q (all: %q)", i, at(got, i), want, got)
		}
	}
	if n := len(statParts(pipeline.Stats{}, pipeline.CacheInfo{}, false)); n != 1 {
		t.Errorf("empty stats parts = %d, want only the layout state", n)
	}
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := []string{"cache", "completion", "convert", "layout", "render", "serve"}
	var got []string
	for _, cmd := range root.Commands() {
		got = append(got, cmd.Name())
	}
	for _, name := range want {
		if !strings.Contains(strings.Join(got, " "), name) {
			t.Errorf("missing subcommand %q in %v", name, got)
		}
	}
}

func TestRenderCommand(t *testing.T) {
	input := writeSchema(t)

	err := runCLI(t, "render", input, "--measurer", "fixed", "-f", "svg,dot,json", "--save-layout")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	base := strings.TrimSuffix(input, ".dbml")
	for _, ext := range []string{".svg", ".dot", ".json"} {
		if _, err := os.Stat(base + ext); err != nil {
			t.Errorf("missing %s output: %v", ext, err)
		}
	}
	f, err := layoutfile.Read(layoutfile.DefaultPath(input))
	if err != nil {
		t.Fatalf("saved layout: %v", err)
	}
	if len(f.Tables) != 2 {
		t.Errorf("saved %d tables, want 2", len(f.Tables))
	}
}

func TestRenderCommand_InvalidFormat(t *testing.T) {
	input := writeSchema(t)
	if err := runCLI(t, "render", input, "-f", "gif"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestLayoutCommand(t *testing.T) {
	input := writeSchema(t)
	out := filepath.Join(filepath.Dir(input), "custom.layout.toml")

	if err := runCLI(t, "layout", input, "--measurer", "fixed", "--no-cache", "-o", out); err != nil {
		t.Fatalf("layout: %v", err)
	}
	f, err := layoutfile.Read(out)
	if err != nil {
		t.Fatal(err)
	}
	if f.Meta.Source != "schema.dbml" {
		t.Errorf("source = %q", f.Meta.Source)
	}
	for _, key := range []string{"public.users", "public.posts"} {
		if _, ok := f.Tables[key]; !ok {
			t.Errorf("layout missing %s", key)
		}
	}
	if _, err := os.Stat(layoutfile.DefaultPath(input)); err == nil {
		t.Error("-o should not write the default layout file")
	}
}

func TestConvertCommand(t *testing.T) {
	input := writeSchema(t)
	dir := filepath.Dir(input)
	saved := "[meta]\nversion = 1\nsource = \"schema.dbml\"\n\n[tables.\"public.users\"]\nx = 11.0\ny = 22.0\n"
	if err := os.WriteFile(layoutfile.DefaultPath(input), []byte(saved), 0o644); err != nil {
		t.Fatal(err)
	}

	plain := filepath.Join(dir, "plain.json")
	if err := runCLI(t, "convert", input, plain); err != nil {
		t.Fatalf("convert: %v", err)
	}
	data, _ := os.ReadFile(plain)
	if strings.Contains(string(data), `"position"`) {
		t.Errorf("plain convert carried positions:\n%s", data)
	}

	placed := filepath.Join(dir, "placed.yaml")
	if err := runCLI(t, "convert", input, placed, "--with-layout"); err != nil {
		t.Fatalf("convert --with-layout: %v", err)
	}
	data, _ = os.ReadFile(placed)
	if !strings.Contains(string(data), "x: 11") {
		t.Errorf("yaml missing saved position:\n%s", data)
	}

	if err := runCLI(t, "convert", input, filepath.Join(dir, "out.dbml")); err == nil {
		t.Error("writing DBML should fail")
	}
}
