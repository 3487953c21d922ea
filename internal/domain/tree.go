package domain

import "sort"

// SortSiblings упорядочивает пункты по order; при равенстве — по порядку создания (ID).
func SortSiblings(items []Menu) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		return items[i].ID < items[j].ID
	})
}

// BuildForest собирает дерево из плоского набора пунктов: корни и depth уровней
// потомков под каждым. Пункты глубже depth отбрасываются. Набор может быть
// неупорядоченным, соседи сортируются через SortSiblings.
func BuildForest(nodes []Menu, depth int) []Menu {
	if depth < 1 {
		depth = 1
	}

	roots := make([]Menu, 0)
	byParent := make(map[int64][]Menu)
	for _, node := range nodes {
		node.Children = nil
		if node.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		byParent[*node.ParentID] = append(byParent[*node.ParentID], node)
	}

	SortSiblings(roots)
	for parentID := range byParent {
		SortSiblings(byParent[parentID])
	}

	var attach func(node *Menu, level int)
	attach = func(node *Menu, level int) {
		if level >= depth {
			return
		}
		children := byParent[node.ID]
		if len(children) == 0 {
			return
		}
		node.Children = make([]Menu, len(children))
		copy(node.Children, children)
		for i := range node.Children {
			attach(&node.Children[i], level+1)
		}
	}

	for i := range roots {
		attach(&roots[i], 0)
	}
	return roots
}

// CloneTree возвращает глубокую копию дерева.
func CloneTree(tree []Menu) []Menu {
	if tree == nil {
		return nil
	}
	out := make([]Menu, len(tree))
	for i, node := range tree {
		out[i] = node
		if node.ParentID != nil {
			parentID := *node.ParentID
			out[i].ParentID = &parentID
		}
		out[i].Children = CloneTree(node.Children)
	}
	return out
}
