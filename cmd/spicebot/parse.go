package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spicebot/internal/cli"
	"github.com/Veraticus/spicebot/internal/parser"
)

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <text...>",
		Short: "Parse a message without saving anything",
		Long: `Run a message through amount extraction and category resolution and print the
drafts it produces. Nothing is saved as a transaction or pending confirmation.

Learned mappings may still be recorded when the AI categorizer answers; pass
--no-ai to keep resolution entirely local.`,
		Example: `  spicebot parse --channel tg_123 "Lunch 25€ Gas 10€"
  spicebot parse --channel tg_42 "Bolachas - Alimentação 100,50€"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			channel, _ := cmd.Flags().GetString("channel")
			noAI, _ := cmd.Flags().GetBool("no-ai")

			var opts []appOption
			if noAI {
				opts = append(opts, withoutCategorizer())
			}
			a, err := newApp(ctx, opts...)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			ws, categories, err := a.workspaceForChannel(ctx, channel)
			if err != nil {
				return err
			}

			result, err := a.parser.Parse(ctx, strings.Join(args, " "), parser.Workspace{ID: ws.ID, Categories: categories})
			if err != nil {
				return err
			}

			printDrafts(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().String("channel", "", "Channel whose workspace the message belongs to")
	cmd.Flags().Bool("no-ai", false, "Skip the AI categorizer")
	_ = cmd.MarkFlagRequired("channel")

	return cmd
}

// printDrafts renders parsed drafts as a table.
func printDrafts(w io.Writer, result *parser.Result) {
	rows := make([][]string, len(result.Drafts))
	for i, d := range result.Drafts {
		category := d.CategoryName
		if category == "" {
			category = cli.StyleSubtle("(none)")
		}
		rows[i] = []string{
			fmt.Sprintf("%d", i+1),
			cli.FormatCents(d.AmountCents()),
			string(d.Type),
			d.Description,
			category,
			string(d.Source),
		}
	}

	fmt.Fprintln(w, cli.RenderTable([]string{"#", "AMOUNT", "TYPE", "DESCRIPTION", "CATEGORY", "SOURCE"}, rows))
}
