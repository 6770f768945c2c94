package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spicebot/internal/cli"
	"github.com/Veraticus/spicebot/internal/model"
)

func mappingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mappings",
		Short: "Inspect learned description to category mappings",
	}

	cmd.AddCommand(listMappingsCmd())

	return cmd
}

func listMappingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List learned mappings",
		Long: `List the mappings learned for a workspace, most used first. Without --workspace the
global mappings shared by every workspace are listed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			workspaceID, _ := cmd.Flags().GetString("workspace")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			mappings, err := store.ListMappings(ctx, workspaceID)
			if err != nil {
				return fmt.Errorf("failed to list mappings: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(mappings) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No mappings learned yet."))
				return nil
			}

			rows := make([][]string, len(mappings))
			for i, m := range mappings {
				rows[i] = mappingRow(m)
			}
			fmt.Fprintln(out, cli.RenderTable([]string{"DESCRIPTION", "TYPE", "CATEGORY", "SCOPE", "USES", "LAST USED"}, rows))
			return nil
		},
	}

	cmd.Flags().String("workspace", model.GlobalWorkspace, "Workspace id (empty for global mappings)")

	return cmd
}

func mappingRow(m model.CategoryMapping) []string {
	return []string{
		m.DescriptionKey,
		string(m.Type),
		m.CategoryName,
		string(m.Scope()),
		strconv.Itoa(m.UsageCount),
		m.LastUsedAt.Local().Format("2006-01-02 15:04"),
	}
}
