package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iliyamo/box-builder/internal/layout"
)

// templatesCommand lists the registry in registration order.
func (c *CLI) templatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List box templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj := layout.NewProjector(c.Registry)
			var rows [][]string
			for _, t := range c.Registry.Templates() {
				rows = append(rows, []string{
					t.Key,
					t.Label,
					string(t.Shape),
					strconv.Itoa(t.Capacity),
					strconv.FormatFloat(proj.ResolveSlotSize(t.Geometry), 'f', -1, 64),
					layout.FillRule(t.Geometry),
				})
			}
			printTable(c.out, []string{"KEY", "LABEL", "SHAPE", "CAPACITY", "SLOT SIZE", "FILL"}, rows)
			return nil
		},
	}
}

// layoutCommand prints the fill order and projected slot positions of one
// template.
func (c *CLI) layoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "layout <template-key>",
		Short: "Show fill order and projected positions of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tpl, ok := c.Registry.Lookup(args[0])
			if !ok {
				return fmt.Errorf("%w: %q", layout.ErrTemplateNotFound, args[0])
			}
			proj := layout.NewProjector(c.Registry)
			order := layout.FillOrder(tpl.Geometry)
			inner := proj.ResolveInner(tpl.Geometry)

			printTitle(c.out, "%s (%s)", tpl.Label, tpl.Key)
			printDetail(c.out, "inner x=%.2f y=%.2f w=%.2f h=%.2f, slot size %.0f%%",
				inner.X, inner.Y, inner.W, inner.H, proj.ResolveSlotSize(tpl.Geometry))
			printDetail(c.out, "fill rule %s", layout.FillRule(tpl.Geometry))

			rank := make(map[int]int, len(order))
			for i, slot := range order {
				rank[slot] = i + 1
			}
			var rows [][]string
			for _, p := range proj.Board(tpl.Geometry) {
				fill := "-"
				if r, ok := rank[p.Slot]; ok {
					fill = StyleNumber.Render(strconv.Itoa(r))
				}
				rows = append(rows, []string{
					strconv.Itoa(p.Slot),
					fill,
					strconv.FormatFloat(p.Left, 'f', 1, 64),
					strconv.FormatFloat(p.Top, 'f', 1, 64),
				})
			}
			printTable(c.out, []string{"SLOT", "FILL", "LEFT %", "TOP %"}, rows)
			return nil
		},
	}
}
