package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spicebot/internal/cli"
	"github.com/Veraticus/spicebot/internal/common"
	"github.com/Veraticus/spicebot/internal/model"
)

func pendingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Inspect and resolve transactions awaiting confirmation",
	}

	cmd.PersistentFlags().String("channel", "", "Channel the pending transactions belong to")
	_ = cmd.MarkPersistentFlagRequired("channel")

	cmd.AddCommand(listPendingCmd())
	cmd.AddCommand(confirmPendingCmd())
	cmd.AddCommand(cancelPendingCmd())
	cmd.AddCommand(clearPendingCmd())

	return cmd
}

func listPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending transactions for a channel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			channel, _ := cmd.Flags().GetString("channel")

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			pendings, err := a.pending.List(ctx, channel)
			if err != nil {
				return fmt.Errorf("failed to list pending transactions: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(pendings) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("Nothing is waiting for confirmation."))
				return nil
			}

			names := map[string]string{}
			if _, categories, err := a.workspaceForChannel(ctx, channel); err == nil {
				for _, c := range categories {
					names[c.ID] = c.Name
				}
			}

			correlator := a.pending.Correlator()
			rows := make([][]string, len(pendings))
			for i, p := range pendings {
				rows[i] = []string{
					correlator.Token(p.ID),
					cli.FormatCents(p.AmountCents),
					string(signedType(p.AmountCents)),
					p.Description,
					categoryLabel(names, p.CategoryID),
					p.CreatedAt.Local().Format("2006-01-02 15:04"),
				}
			}
			fmt.Fprintln(out, cli.RenderTable([]string{"TOKEN", "AMOUNT", "TYPE", "DESCRIPTION", "CATEGORY", "CREATED"}, rows))
			return nil
		},
	}
}

func confirmPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <token>",
		Short: "Commit a pending transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			channel, _ := cmd.Flags().GetString("channel")

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			txn, err := a.pending.Confirm(ctx, channel, args[0])
			if err != nil {
				return pendingError(err, args[0])
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Saved %s %s", txn.Description, cli.FormatCents(txn.AmountCents))))
			return nil
		},
	}
}

func cancelPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <token>",
		Short: "Discard a pending transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			channel, _ := cmd.Flags().GetString("channel")

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			p, err := a.pending.Cancel(ctx, channel, args[0])
			if err != nil {
				return pendingError(err, args[0])
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Discarded %s %s", p.Description, cli.FormatCents(p.AmountCents))))
			return nil
		},
	}
}

func clearPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Discard every pending transaction of a channel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			channel, _ := cmd.Flags().GetString("channel")

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			n, err := a.pending.Clear(ctx, channel)
			if err != nil {
				return fmt.Errorf("failed to clear pending transactions: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Discarded %d pending transaction(s)", n)))
			return nil
		},
	}
}

func pendingError(err error, token string) error {
	if errors.Is(err, common.ErrPendingNotFound) {
		return common.NewUserError(fmt.Sprintf("no pending transaction matches %q on this channel", token), err)
	}
	return err
}

func categoryLabel(names map[string]string, id *string) string {
	if id == nil {
		return cli.StyleSubtle("(none)")
	}
	if name, ok := names[*id]; ok {
		return name
	}
	return *id
}

// signedType labels a stored amount with its direction.
func signedType(cents int64) model.TransactionType {
	return model.Transaction{AmountCents: cents}.Type()
}
