package cmd

import (
	"fmt"
	"io"

	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
)

var treeFlags struct {
	level int
	short bool
}

var treeCmd = &cobra.Command{
	Use:   "tree [command]",
	Short: "Prints the command tree of findy-exchange",
	Long: `
Prints the command tree starting from the root, or from the command given as
the argument. --level limits the depth, --short adds the descriptions.

Example
	findy-exchange tree --short
	findy-exchange tree completion
	`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer err2.Handle(&err, "tree")

		top := rootCmd
		if len(args) == 1 {
			top, _ = try.To2(rootCmd.Find(args))
		}
		branch{out: cmd.OutOrStdout(), short: treeFlags.short}.print(top, "", 0, true)
		return nil
	},
}

// branch prints one command and its visible subcommands.
type branch struct {
	out   io.Writer
	short bool
}

func (b branch) print(c *cobra.Command, indent string, level int, last bool) {
	if treeFlags.level > 0 && level >= treeFlags.level {
		return
	}
	edge, next := "├── ", indent+"│   "
	if last {
		edge, next = "└── ", indent+"    "
	}
	if b.short && c.Short != "" {
		fmt.Fprintf(b.out, "%s%s%s: %s\n", indent, edge, c.Name(), c.Short)
	} else {
		fmt.Fprintf(b.out, "%s%s%s\n", indent, edge, c.Name())
	}

	subs := visible(c.Commands())
	for i, sub := range subs {
		b.print(sub, next, level+1, i == len(subs)-1)
	}
}

func visible(subs []*cobra.Command) []*cobra.Command {
	shown := make([]*cobra.Command, 0, len(subs))
	for _, c := range subs {
		if c.IsAvailableCommand() {
			shown = append(shown, c)
		}
	}
	return shown
}

func init() {
	flags := treeCmd.Flags()
	flags.IntVarP(&treeFlags.level, "level", "L", 0, "depth of the tree, zero prints all")
	flags.BoolVarP(&treeFlags.short, "short", "s", false, "print the short descriptions")
	rootCmd.AddCommand(treeCmd)
}
