package cli

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
)

// complete runs cobra's hidden completion command and returns the offered
// values and the trailing directive line.
func complete(t *testing.T, args ...string) ([]string, string) {
	t.Helper()
	var out bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs(append([]string{cobra.ShellCompRequestCmd}, args...))
	root.SetOut(&out)
	root.SetErr(io.Discard)
	if err := root.Execute(); err != nil {
		t.Fatalf("complete %v: %v", args, err)
	}
	var vals []string
	directive := ""
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if strings.HasPrefix(line, ":") {
			directive = line
			continue
		}
		vals = append(vals, strings.SplitN(line, "\t", 2)[0])
	}
	return vals, directive
}

func TestFlagCompletions(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"engine", []string{"render", "schema.dbml", "--engine", ""}, []string{"graphviz", "native"}},
		{"rasterizer", []string{"serve", "schema.dbml", "--rasterizer", ""}, []string{"native", "rsvg"}},
		{"measurer", []string{"layout", "schema.dbml", "--measurer", ""}, []string{"face", "fixed"}},
		{"stage", []string{"cache", "clear", "--stage", ""}, []string{"layout", "artifact"}},
		{"format", []string{"render", "schema.dbml", "--format", ""}, []string{"dot", "json", "pdf", "png", "svg"}},
		{"format list", []string{"render", "schema.dbml", "--format", "svg,png,"}, []string{"svg,png,dot", "svg,png,json", "svg,png,pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := complete(t, tt.args...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("completions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSchemaArgCompletion(t *testing.T) {
	got, directive := complete(t, "render", "")
	if diff := cmp.Diff(schemaExtensions, got); diff != "" {
		t.Errorf("extensions mismatch (-want +got):\n%s", diff)
	}
	// ShellCompDirectiveFilterFileExt
	if directive != ":8" {
		t.Errorf("directive = %q, want :8", directive)
	}

	if got, _ := complete(t, "render", "schema.dbml", ""); len(got) != 0 {
		t.Errorf("render takes one schema, got completions %v", got)
	}
}

func TestCompletionScripts(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			var out bytes.Buffer
			root := New(io.Discard, LogInfo).RootCommand()
			root.SetArgs([]string{"completion", shell})
			root.SetOut(&out)
			if err := root.Execute(); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(out.String(), "erdraw") {
				t.Errorf("%s script does not mention erdraw", shell)
			}
		})
	}
}
