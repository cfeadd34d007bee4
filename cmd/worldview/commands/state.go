package commands

import (
	"github.com/spf13/cobra"

	"github.com/i474232898/worldview/internal/worldview"
)

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List recently viewed cities, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), appCtx.History.List())
		},
	}
}

func langCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "lang [en|zh|ja]",
		Short:     "Show or set the display language",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"en", "zh", "ja"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := appCtx.Pipeline.SetLanguage(cmd.Context(), worldview.Language(args[0])); err != nil {
					return err
				}
			}
			lang := appCtx.Pipeline.Language()
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"language": lang,
				"labels":   worldview.LabelsFor(lang),
			})
		},
	}
}
