package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/vladislavdragonenkov/menus/internal/domain"
	menusvc "github.com/vladislavdragonenkov/menus/internal/service/menu"
)

func newTreeCmd(c *cli) *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the menu tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBackend(cmd, func(ctx context.Context, b *backend) error {
				tree, err := engine(b).GetTree(ctx, depth, false)
				if err != nil {
					return err
				}
				renderTree(cmd.OutOrStdout(), tree)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&depth, "depth", menusvc.DefaultTreeDepth, "number of levels to print")
	return cmd
}

func newListCmd(c *cli) *cobra.Command {
	var page, perPage int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of menus ordered by id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withBackend(cmd, func(ctx context.Context, b *backend) error {
				result, err := engine(b).PaginateMenus(ctx, page, perPage)
				if err != nil {
					return err
				}
				renderPage(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", menusvc.DefaultPerPage, "menus per page")
	return cmd
}

// renderTree печатает дерево списком с отступами по уровням.
func renderTree(out io.Writer, tree []domain.Menu) {
	if len(tree) == 0 {
		fmt.Fprintln(out, "no menus")
		return
	}

	l := list.NewWriter()
	l.SetStyle(list.StyleConnectedRounded)
	appendTree(l, tree)
	fmt.Fprintln(out, l.Render())
}

func appendTree(l list.Writer, nodes []domain.Menu) {
	for _, node := range nodes {
		l.AppendItem(fmt.Sprintf("%s (id=%d, order=%d)", node.Name, node.ID, node.Order))
		if len(node.Children) > 0 {
			l.Indent()
			appendTree(l, node.Children)
			l.UnIndent()
		}
	}
}

func renderPage(out io.Writer, page domain.MenuPage) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"ID", "NAME", "PARENT", "ORDER"})
	for _, m := range page.Items {
		parent := "-"
		if m.ParentID != nil {
			parent = strconv.FormatInt(*m.ParentID, 10)
		}
		t.AppendRow(table.Row{m.ID, m.Name, parent, m.Order})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("page %d of %d", page.Page, page.LastPage()), "total", page.Total})
	t.Render()
}
