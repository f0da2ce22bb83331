// Package docs renders the command reference used in README.md.
package docs

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/keshon/guild-dispatch/pkg/cmd"
)

// CommandReference lists every runnable command of r as markdown, one
// section per root command, with descriptions resolved through l.
func CommandReference(r *cmd.Registry, l cmd.Locale, scheme cmd.PermissionScheme) string {
	var buf bytes.Buffer
	for i, c := range r.Sorted() {
		if i > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "### %s\n\n", c.Name)
		walk(&buf, c, nil, l, l, scheme, 0)
	}
	return buf.String()
}

func walk(buf *bytes.Buffer, c *cmd.Command, path []string, root, parent cmd.Locale, scheme cmd.PermissionScheme, perms int64) {
	path = append(path, c.Name)
	perms |= c.Permissions

	local := parent.GetCommandLocale(c.Name, true)
	if c.Handler != nil {
		desc := ""
		if local != nil {
			desc, _ = local.Lookup("description")
		}
		usage := strings.Join(append(append([]string(nil), path...), usageArgs(c.Arguments)...), " ")

		fmt.Fprintf(buf, "* **`%s`**", usage)
		if c.Shortcut != "" {
			fmt.Fprintf(buf, " (`%s`)", c.Shortcut)
		}
		fmt.Fprintf(buf, " - %s", desc)
		if perms != 0 {
			fmt.Fprintf(buf, " _(%s)_", cmd.ListMissingPermissions(root, cmd.MissingPermissionKeys(0, perms, scheme)))
		}
		buf.WriteString("\n")
	}

	if local == nil {
		local = parent
	}
	for _, sub := range c.Subcommands {
		walk(buf, sub, path, root, local, scheme, perms)
	}
}

func usageArgs(args []cmd.Argument) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		switch {
		case a.Variadic:
			out = append(out, a.Name+"...")
		case a.Default != nil:
			out = append(out, a.Name+"?")
		default:
			out = append(out, a.Name)
		}
	}
	return out
}

// UpdateReadme renders the template at tmplPath into outPath. The template
// sees the reference as {{.CommandSections}}.
func UpdateReadme(tmplPath, outPath, reference string) error {
	data, err := os.ReadFile(tmplPath)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}
	tmpl, err := template.New("readme").Parse(string(data))
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, map[string]any{"CommandSections": reference}); err != nil {
		return fmt.Errorf("render template: %w", err)
	}
	return os.WriteFile(outPath, out.Bytes(), 0o644)
}
