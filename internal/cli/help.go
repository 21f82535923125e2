package cli

import (
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/yaklabco/allowfix/internal/ui/pretty"
)

// usageTemplate is cobra's default usage template with styled section headings.
const usageTemplate = `{{heading "Usage:"}}{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if .HasExample}}

{{heading "Examples:"}}
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}

{{heading "Available Commands:"}}{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{command (rpad .Name .NamePadding)}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

{{heading "Flags:"}}
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

{{heading "Global Flags:"}}
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`

//nolint:gochecknoglobals // cobra template functions are process-wide.
var registerHelpFuncs sync.Once

// applyHelpStyles colors help headings when writer is a terminal.
func applyHelpStyles(cmd *cobra.Command, writer io.Writer) {
	registerHelpFuncs.Do(func() {
		styles := pretty.NewStyles(pretty.IsColorEnabled("auto", writer))

		cobra.AddTemplateFunc("heading", func(s string) string {
			return styles.Unresolved.Render(s)
		})
		cobra.AddTemplateFunc("command", func(s string) string {
			return styles.Inserted.Render(s)
		})
	})

	cmd.SetUsageTemplate(usageTemplate)
}
