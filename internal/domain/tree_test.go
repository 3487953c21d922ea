package domain

import "testing"

func ptr(v int64) *int64 { return &v }

func flatFixture() []Menu {
	return []Menu{
		{ID: 1, Name: "Products", Order: 1},
		{ID: 2, Name: "About", Order: 2},
		{ID: 3, Name: "Contact", Order: 2},
		{ID: 4, Name: "Electronics", ParentID: ptr(1), Order: 1},
		{ID: 5, Name: "Fashion", ParentID: ptr(1), Order: 0},
		{ID: 6, Name: "Smartphone", ParentID: ptr(4), Order: 1},
		{ID: 7, Name: "Android", ParentID: ptr(6), Order: 1},
	}
}

func TestBuildForest_OrdersSiblingsWithTieBreak(t *testing.T) {
	forest := BuildForest(flatFixture(), 3)

	if len(forest) != 3 {
		t.Fatalf("expected 3 roots, got %d", len(forest))
	}
	wantRoots := []string{"Products", "About", "Contact"}
	for i, name := range wantRoots {
		if forest[i].Name != name {
			t.Fatalf("root[%d] = %s, want %s", i, forest[i].Name, name)
		}
	}

	products := forest[0]
	if len(products.Children) != 2 {
		t.Fatalf("expected 2 children of Products, got %d", len(products.Children))
	}
	if products.Children[0].Name != "Fashion" || products.Children[1].Name != "Electronics" {
		t.Fatalf("unexpected child order: %s, %s", products.Children[0].Name, products.Children[1].Name)
	}
}

func TestBuildForest_DepthBound(t *testing.T) {
	tests := []struct {
		depth         int
		wantGrandkids bool
		wantLevel3    bool
	}{
		{depth: 0, wantGrandkids: false},
		{depth: 1, wantGrandkids: false},
		{depth: 2, wantGrandkids: true, wantLevel3: false},
		{depth: 3, wantGrandkids: true, wantLevel3: true},
	}

	for _, tt := range tests {
		forest := BuildForest(flatFixture(), tt.depth)
		products := forest[0]
		if len(products.Children) == 0 {
			t.Fatalf("depth %d: children of roots must always be loaded", tt.depth)
		}
		electronics := products.Children[1]
		if got := len(electronics.Children) > 0; got != tt.wantGrandkids {
			t.Fatalf("depth %d: grandchildren loaded = %v, want %v", tt.depth, got, tt.wantGrandkids)
		}
		if !tt.wantGrandkids {
			continue
		}
		smartphone := electronics.Children[0]
		if got := len(smartphone.Children) > 0; got != tt.wantLevel3 {
			t.Fatalf("depth %d: level 3 loaded = %v, want %v", tt.depth, got, tt.wantLevel3)
		}
		if tt.wantLevel3 && len(smartphone.Children[0].Children) != 0 {
			t.Fatalf("depth %d: level 4 must be absent", tt.depth)
		}
	}
}

func TestCloneTree_IsDeep(t *testing.T) {
	original := BuildForest(flatFixture(), 3)
	clone := CloneTree(original)

	clone[0].Name = "Changed"
	clone[0].Children[0].Name = "Changed child"
	*clone[0].Children[0].ParentID = 99

	if original[0].Name != "Products" {
		t.Fatal("root mutated through clone")
	}
	if original[0].Children[0].Name != "Fashion" {
		t.Fatal("child mutated through clone")
	}
	if *original[0].Children[0].ParentID != 1 {
		t.Fatal("parent id mutated through clone")
	}
}

func TestMenuPatch_IsEmpty(t *testing.T) {
	if !(MenuPatch{}).IsEmpty() {
		t.Fatal("zero patch must be empty")
	}
	if (MenuPatch{ParentSet: true}).IsEmpty() {
		t.Fatal("patch moving to root must not be empty")
	}
}

func TestMenuPage_LastPage(t *testing.T) {
	if got := (MenuPage{Total: 0, PerPage: 15}).LastPage(); got != 1 {
		t.Fatalf("empty page: got %d", got)
	}
	if got := (MenuPage{Total: 31, PerPage: 15}).LastPage(); got != 3 {
		t.Fatalf("expected 3 pages, got %d", got)
	}
}
