package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/keshon/guild-dispatch/internal/commands"
	"github.com/keshon/guild-dispatch/internal/discord"
	"github.com/keshon/guild-dispatch/internal/docs"
	"github.com/keshon/guild-dispatch/internal/locale"
	"github.com/keshon/guild-dispatch/pkg/cmd"
)

func main() {
	var tmplPath, outPath, tag string

	root := &cobra.Command{
		Use:          "build-readme",
		Short:        "Render README.md with the command reference",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			bundle, err := locale.NewBundle("en")
			if err != nil {
				return err
			}
			if !bundle.Has(tag) {
				return fmt.Errorf("unknown locale %q", tag)
			}
			ref := docs.CommandReference(cmd.DefaultRegistry, bundle.Locale(tag), discord.Scheme)
			if err := docs.UpdateReadme(tmplPath, outPath, ref); err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "wrote %s\n", outPath)
			return nil
		},
	}
	root.Flags().StringVar(&tmplPath, "template", "README.md.tmpl", "README template")
	root.Flags().StringVar(&outPath, "out", "README.md", "output file")
	root.Flags().StringVar(&tag, "locale", "en", "locale of the descriptions")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
