package cli

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/erdraw/pkg/cache"
	"github.com/matzehuels/erdraw/pkg/pipeline"
)

// schemaExtensions are the inputs every schema-taking command accepts.
var schemaExtensions = []string{"dbml", "json", "yaml", "yml"}

// completionCommand prints a shell completion script for erdraw.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for erdraw.

Besides subcommands and flags, the scripts complete schema files
(.dbml, .json, .yaml) and the values of --format, --engine, --measurer,
--rasterizer and --stage.

  bash:        source <(erdraw completion bash)
  zsh:         erdraw completion zsh > "${fpath[1]}/_erdraw"
  fish:        erdraw completion fish > ~/.config/fish/completions/erdraw.fish
  powershell:  erdraw completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// registerCompletions attaches value completion to the erdraw flags and
// schema arguments found anywhere below root.
func registerCompletions(root *cobra.Command) {
	values := map[string][]string{
		"engine":     names(pipeline.ValidEngines),
		"measurer":   names(pipeline.ValidMeasurers),
		"rasterizer": names(pipeline.ValidRasterizers),
		"stage":      stageNames(),
	}

	var walk func(cmd *cobra.Command)
	walk = func(cmd *cobra.Command) {
		for flag, vals := range values {
			if cmd.Flags().Lookup(flag) != nil {
				_ = cmd.RegisterFlagCompletionFunc(flag, fixedValues(vals))
			}
		}
		if cmd.Flags().Lookup("format") != nil {
			_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
		}
		for _, flag := range []string{"config", "layout"} {
			if cmd.Flags().Lookup(flag) != nil {
				_ = cmd.MarkFlagFilename(flag, "toml")
			}
		}
		switch cmd.Name() {
		case "render", "layout", "serve", "convert":
			cmd.ValidArgsFunction = completeSchema
		}
		for _, sub := range cmd.Commands() {
			walk(sub)
		}
	}
	walk(root)
}

func fixedValues(vals []string) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return vals, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeFormats completes the last entry of a comma-separated format list,
// skipping formats already given.
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix, seen := "", map[string]bool{}
	if i := strings.LastIndexByte(toComplete, ','); i >= 0 {
		prefix = toComplete[:i+1]
		for _, f := range strings.Split(toComplete[:i], ",") {
			seen[f] = true
		}
	}
	var out []string
	for _, f := range names(pipeline.ValidFormats) {
		if !seen[f] {
			out = append(out, prefix+f)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

// completeSchema offers schema files for the first argument. convert's
// second argument is an output path and falls back to plain file completion.
func completeSchema(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return schemaExtensions, cobra.ShellCompDirectiveFilterFileExt
	}
	if cmd.Name() == "convert" && len(args) == 1 {
		return []string{"json", "yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func names(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func stageNames() []string {
	out := make([]string, len(cache.Stages))
	for i, s := range cache.Stages {
		out[i] = string(s)
	}
	return out
}
