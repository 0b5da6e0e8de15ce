package cli

import (
	"github.com/spf13/cobra"

	"github.com/iliyamo/box-builder/internal/service"
)

// rebuildCommand re-materialises stored boxes from their templates.
func (c *CLI) rebuildCommand() *cobra.Command {
	var boxID string
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild stored boxes from their templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			c.Logger.Debug("rebuilding", "box", boxID)
			rep, err := service.RebuildBoxes(ctx, store, c.Registry, boxID)
			for _, b := range rep.Updated {
				printDetail(c.out, "%s  %s  -> %s", b.ID, b.Name, b.TemplateKey)
			}
			if err != nil {
				return err
			}
			printSuccess(c.out, "Rebuilt %d box(es)", len(rep.Updated))
			for _, id := range rep.Missing {
				printWarning(c.out, "No template for box %s", id)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&boxID, "box", "", "rebuild only this box id")
	return cmd
}
