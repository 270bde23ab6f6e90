package completion

import (
	"strings"

	"github.com/spf13/cobra"
)

// CompleteFunc is the signature cobra uses for argument and flag completion.
type CompleteFunc func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective)

// MarkdownFiles completes file arguments with Markdown extensions.
func MarkdownFiles(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"md", "markdown", "mdown", "mkd"}, cobra.ShellCompDirectiveFilterFileExt
}

// HTMLFiles completes file arguments with HTML extensions.
func HTMLFiles(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"html", "htm"}, cobra.ShellCompDirectiveFilterFileExt
}

// Values completes a flag from a fixed list, keeping entries that start
// with the typed prefix.
func Values(values ...string) CompleteFunc {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var out []string
		for _, v := range values {
			if strings.HasPrefix(v, toComplete) {
				out = append(out, v)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}

// RegisterFlagValues attaches Values completion to a flag of cmd.
func RegisterFlagValues(cmd *cobra.Command, flag string, values ...string) {
	_ = cmd.RegisterFlagCompletionFunc(flag, Values(values...))
}
