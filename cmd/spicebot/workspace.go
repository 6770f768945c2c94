package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spicebot/internal/cli"
	"github.com/Veraticus/spicebot/internal/model"
	"github.com/Veraticus/spicebot/internal/storage"
)

func workspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Manage workspaces and their categories",
		Long:  `Create workspaces, link them to chat channels, and manage the categories transactions are filed under.`,
	}

	cmd.AddCommand(createWorkspaceCmd())
	cmd.AddCommand(listWorkspacesCmd())
	cmd.AddCommand(categoriesCmd())

	return cmd
}

func createWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a workspace linked to a channel",
		Example: `  spicebot workspace create --name Household --channel tg_123456
  spicebot workspace create --name Casa --channel tg_42 --language pt --auto-confirm`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			name, _ := cmd.Flags().GetString("name")
			channel, _ := cmd.Flags().GetString("channel")
			language, _ := cmd.Flags().GetString("language")
			autoConfirm, _ := cmd.Flags().GetBool("auto-confirm")
			seed, _ := cmd.Flags().GetBool("seed")

			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("--name is required")
			}
			if language != "en" && language != "pt" {
				return fmt.Errorf("unsupported language %q (use en or pt)", language)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ws := &model.Workspace{
				Name:        name,
				ChannelID:   channel,
				Language:    language,
				AutoConfirm: autoConfirm,
			}
			if err := store.CreateWorkspace(ctx, ws); err != nil {
				return fmt.Errorf("failed to create workspace: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Created workspace %q (%s)", ws.Name, ws.ID)))

			if seed {
				n, err := seedCategories(ctx, store, ws)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Added %d default categories", n)))
			}
			return nil
		},
	}

	cmd.Flags().String("name", "", "Workspace name")
	cmd.Flags().String("channel", "", "Chat channel identifier to link, e.g. tg_123456")
	cmd.Flags().String("language", "en", "Reply language (en, pt)")
	cmd.Flags().Bool("auto-confirm", false, "Save transactions without asking for confirmation")
	cmd.Flags().Bool("seed", true, "Add the default categories for the language")

	return cmd
}

// seedCategories adds the default categories for the workspace language.
func seedCategories(ctx context.Context, store *storage.SQLiteStorage, ws *model.Workspace) (int, error) {
	defaults := model.DefaultCategories(ws.Language)
	count := 0
	for _, t := range []model.TransactionType{model.TypeExpense, model.TypeIncome} {
		for _, name := range defaults[t] {
			if _, err := store.CreateCategory(ctx, ws.ID, name, t); err != nil {
				return count, fmt.Errorf("failed to create category %q: %w", name, err)
			}
			count++
		}
	}
	return count, nil
}

func listWorkspacesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all workspaces",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			workspaces, err := store.ListWorkspaces(ctx)
			if err != nil {
				return fmt.Errorf("failed to list workspaces: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(workspaces) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No workspaces found. Use 'spicebot workspace create' to create one."))
				return nil
			}

			rows := make([][]string, len(workspaces))
			for i, ws := range workspaces {
				auto := "no"
				if ws.AutoConfirm {
					auto = "yes"
				}
				rows[i] = []string{ws.ID, ws.Name, ws.ChannelID, ws.Language, auto}
			}
			fmt.Fprintln(out, cli.RenderTable([]string{"ID", "NAME", "CHANNEL", "LANGUAGE", "AUTO-CONFIRM"}, rows))
			return nil
		},
	}
}

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage workspace categories",
	}

	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(listCategoriesCmd())

	return cmd
}

func addCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <workspace-id> <name>",
		Short: "Add a category to a workspace",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			typeFlag, _ := cmd.Flags().GetString("type")
			t, ok := model.ParseTransactionType(typeFlag)
			if !ok {
				return fmt.Errorf("invalid --type %q (use expense or income)", typeFlag)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if _, err := store.GetWorkspace(ctx, args[0]); err != nil {
				return fmt.Errorf("workspace %q: %w", args[0], err)
			}

			category, err := store.CreateCategory(ctx, args[0], args[1], t)
			if err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added %s category %q", category.Type, category.Name)))
			return nil
		},
	}

	cmd.Flags().String("type", string(model.TypeExpense), "Category type (expense, income)")

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <workspace-id>",
		Short: "List a workspace's categories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			typeFlag, _ := cmd.Flags().GetString("type")
			var t model.TransactionType
			if typeFlag != "" {
				parsed, ok := model.ParseTransactionType(typeFlag)
				if !ok {
					return fmt.Errorf("invalid --type %q (use expense or income)", typeFlag)
				}
				t = parsed
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories, err := store.ListCategories(ctx, args[0], t)
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(categories) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No categories found. Use 'spicebot workspace categories add' to create one."))
				return nil
			}

			sort.SliceStable(categories, func(i, j int) bool {
				return categories[i].Type < categories[j].Type
			})
			rows := make([][]string, len(categories))
			for i, c := range categories {
				rows[i] = []string{c.Name, string(c.Type), c.ID}
			}
			fmt.Fprintln(out, cli.RenderTable([]string{"NAME", "TYPE", "ID"}, rows))
			return nil
		},
	}

	cmd.Flags().String("type", "", "Only list categories of this type (expense, income)")

	return cmd
}
