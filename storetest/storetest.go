// Package storetest is a contract test suite that every data.Store
// implementation must pass. Store packages call Run from their own tests
// with a factory that returns a fresh, empty store.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/kslattery/todolistd/data"
)

// Factory returns a fresh, empty store. Cleanup should be registered on t.
type Factory func(t *testing.T) data.Store

// Run exercises the full data.Store contract against stores built by
// newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("ListCRUD", func(t *testing.T) { testListCRUD(t, newStore) })
	t.Run("ListDeleteCascades", func(t *testing.T) { testListDeleteCascades(t, newStore) })
	t.Run("ItemCRUD", func(t *testing.T) { testItemCRUD(t, newStore) })
	t.Run("ItemNameUniqueAcrossLists", func(t *testing.T) { testItemNameUniqueAcrossLists(t, newStore) })
	t.Run("SamePriorityDifferentLists", func(t *testing.T) { testSamePriorityDifferentLists(t, newStore) })
	t.Run("CreateCollisionCascades", func(t *testing.T) { testCreateCollisionCascades(t, newStore) })
	t.Run("CreateCascadeStopsAtGap", func(t *testing.T) { testCreateCascadeStopsAtGap(t, newStore) })
	t.Run("UpdateToEarlierPriority", func(t *testing.T) { testUpdateToEarlierPriority(t, newStore) })
	t.Run("UpdateToLaterPriority", func(t *testing.T) { testUpdateToLaterPriority(t, newStore) })
	t.Run("MoveToOtherList", func(t *testing.T) { testMoveToOtherList(t, newStore) })
	t.Run("PatchDescriptionOnly", func(t *testing.T) { testPatchDescriptionOnly(t, newStore) })
	t.Run("ListWithItemsOrdering", func(t *testing.T) { testListWithItemsOrdering(t, newStore) })
	t.Run("ListItemsOrdering", func(t *testing.T) { testListItemsOrdering(t, newStore) })
}

// mustCreateList adds a list, failing the test on any error.
func mustCreateList(t *testing.T, s data.Store, name string) {
	t.Helper()
	if _, err := s.CreateList(context.Background(), name, name+" description"); err != nil {
		t.Fatalf("Error creating list %s: %v", name, err)
	}
}

// mustCreateItem adds an item, failing the test on any error.
func mustCreateItem(t *testing.T, s data.Store, name, list string, priority int) {
	t.Helper()
	_, err := s.CreateItem(context.Background(), data.ToDoItem{
		Name:        name,
		Description: name + " description",
		ToDoList:    list,
		Priority:    priority,
	})
	if err != nil {
		t.Fatalf("Error creating item %s: %v", name, err)
	}
}

// assertListOrder checks that the named list holds exactly the given items,
// in ascending priority order, with the given priorities.
func assertListOrder(t *testing.T, s data.Store, list string, names []string, priorities []int) {
	t.Helper()
	lwi, ok, err := s.GetListWithItems(context.Background(), list)
	if err != nil {
		t.Fatalf("Error getting list %s with items: %v", list, err)
	}
	if !ok {
		t.Fatalf("List %s unexpectedly missing.", list)
	}
	if len(lwi.Items) != len(names) {
		t.Fatalf("List %s has %d items, want %d.", list, len(lwi.Items), len(names))
	}
	for i, item := range lwi.Items {
		if item.Name != names[i] {
			t.Errorf("List %s position %d holds %s, want %s.", list, i, item.Name, names[i])
		}
		if item.Priority != priorities[i] {
			t.Errorf("Item %s has priority %d, want %d.", item.Name, item.Priority, priorities[i])
		}
	}
}

func testListCRUD(t *testing.T, newStore Factory) {
	s := newStore(t)
	ctx := context.Background()

	created, err := s.CreateList(ctx, "work", "things to do at work")
	if err != nil {
		t.Fatalf("Error creating list: %v", err)
	}
	if created.Name != "work" || created.Description != "things to do at work" {
		t.Errorf("Created list came back wrong: %+v", created)
	}

	// Does a duplicate name get refused?
	if _, err := s.CreateList(ctx, "work", "again"); !errors.Is(err, data.ErrDuplicateName) {
		t.Errorf("Duplicate list create returned %v, want ErrDuplicateName.", err)
	}

	// Do lists come back sorted by name?
	mustCreateList(t, s, "alpha")
	lists, err := s.ListLists(ctx)
	if err != nil {
		t.Fatalf("Error listing lists: %v", err)
	}
	if len(lists) != 2 || lists[0].Name != "alpha" || lists[1].Name != "work" {
		t.Errorf("Lists not sorted by name: %+v", lists)
	}

	// Can we update the description?
	updated, ok, err := s.UpdateList(ctx, "work", "new description")
	if err != nil {
		t.Fatalf("Error updating list: %v", err)
	}
	if !ok {
		t.Fatal("Update claims list does not exist.")
	}
	if updated.Description != "new description" {
		t.Errorf("Description not updated: %+v", updated)
	}

	// Does updating a missing list report ok=false?
	if _, ok, err := s.UpdateList(ctx, "i_do_not_exist", "x"); err != nil || ok {
		t.Errorf("Update of missing list returned ok=%v err=%v.", ok, err)
	}

	// Can we delete, and does a second delete report ok=false?
	if ok, err := s.DeleteList(ctx, "work"); err != nil || !ok {
		t.Errorf("Delete returned ok=%v err=%v.", ok, err)
	}
	if _, ok, _ := s.GetList(ctx, "work"); ok {
		t.Error("Deleted list still present.")
	}
	if ok, err := s.DeleteList(ctx, "work"); err != nil || ok {
		t.Errorf("Second delete returned ok=%v err=%v.", ok, err)
	}
}

func testListDeleteCascades(t *testing.T, newStore Factory) {
	s := newStore(t)
	ctx := context.Background()
	mustCreateList(t, s, "work")
	mustCreateList(t, s, "home")
	mustCreateItem(t, s, "FirstItem", "work", 1)
	mustCreateItem(t, s, "SecondItem", "work", 2)
	mustCreateItem(t, s, "OtherItem", "home", 1)

	if ok, err := s.DeleteList(ctx, "work"); err != nil || !ok {
		t.Fatalf("Delete returned ok=%v err=%v.", ok, err)
	}

	// Are the child items gone, and the other list untouched?
	if _, ok, _ := s.GetItem(ctx, "FirstItem"); ok {
		t.Error("Item survived deletion of its list.")
	}
	if _, ok, _ := s.GetItem(ctx, "SecondItem"); ok {
		t.Error("Item survived deletion of its list.")
	}
	if _, ok, _ := s.GetItem(ctx, "OtherItem"); !ok {
		t.Error("Item in sibling list vanished.")
	}
}

func testItemCRUD(t *testing.T, newStore Factory) {
	s := newStore(t)
	ctx := context.Background()
	mustCreateList(t, s, "work")

	created, err := s.CreateItem(ctx, data.ToDoItem{
		Name: "FirstItem", Description: "first", ToDoList: "work", Priority: 1,
	})
	if err != nil {
		t.Fatalf("Error creating item: %v", err)
	}
	if created.Priority != 1 || created.ToDoList != "work" {
		t.Errorf("Created item came back wrong: %+v", created)
	}

	// Does creating in a non-existent list get refused?
	_, err = s.CreateItem(ctx, data.ToDoItem{
		Name: "Orphan", Description: "x", ToDoList: "i_do_not_exist", Priority: 1,
	})
	if !errors.Is(err, data.ErrNoSuchList) {
		t.Errorf("Create in missing list returned %v, want ErrNoSuchList.", err)
	}
	if _, ok, _ := s.GetItem(ctx, "Orphan"); ok {
		t.Error("Orphan item was inserted despite missing list.")
	}

	// Can we fetch it back?
	item, ok, err := s.GetItem(ctx, "FirstItem")
	if err != nil || !ok {
		t.Fatalf("Get returned ok=%v err=%v.", ok, err)
	}
	if item.Description != "first" {
		t.Errorf("Item came back wrong: %+v", item)
	}

	// What about getting an item that doesn't exist?
	if _, ok, _ := s.GetItem(ctx, "i_do_not_exist"); ok {
		t.Error("Store claims to hold an item that was never added.")
	}

	// Can we delete, and does a second delete report ok=false?
	if ok, err := s.DeleteItem(ctx, "FirstItem"); err != nil || !ok {
		t.Errorf("Delete returned ok=%v err=%v.", ok, err)
	}
	if ok, err := s.DeleteItem(ctx, "FirstItem"); err != nil || ok {
		t.Errorf("Second delete returned ok=%v err=%v.", ok, err)
	}

	// Does updating a missing item report ok=false?
	desc := "x"
	if _, ok, err := s.UpdateItem(ctx, "FirstItem", data.ItemPatch{Description: &desc}); err != nil || ok {
		t.Errorf("Update of missing item returned ok=%v err=%v.", ok, err)
	}
}

func testItemNameUniqueAcrossLists(t *testing.T, newStore Factory) {
	s := newStore(t)
	mustCreateList(t, s, "work")
	mustCreateList(t, s, "home")
	mustCreateItem(t, s, "FirstItem", "work", 1)

	// Item names are globally unique, even across lists.
	_, err := s.CreateItem(context.Background(), data.ToDoItem{
		Name: "FirstItem", Description: "again", ToDoList: "home", Priority: 1,
	})
	if !errors.Is(err, data.ErrDuplicateName) {
		t.Errorf("Duplicate item create returned %v, want ErrDuplicateName.", err)
	}
}

func testSamePriorityDifferentLists(t *testing.T, newStore Factory) {
	s := newStore(t)
	mustCreateList(t, s, "work")
	mustCreateList(t, s, "home")
	mustCreateItem(t, s, "WorkItem", "work", 1)
	mustCreateItem(t, s, "HomeItem", "home", 1)

	// Same priority in different lists must coexist, untouched.
	assertListOrder(t, s, "work", []string{"WorkItem"}, []int{1})
	assertListOrder(t, s, "home", []string{"HomeItem"}, []int{1})
}

func testCreateCollisionCascades(t *testing.T, newStore Factory) {
	s := newStore(t)
	mustCreateList(t, s, "work")
	mustCreateItem(t, s, "A", "work", 1)
	mustCreateItem(t, s, "B", "work", 2)

	// Creating C at priority 1 displaces A and, cascading, B.
	mustCreateItem(t, s, "C", "work", 1)
	assertListOrder(t, s, "work", []string{"C", "A", "B"}, []int{1, 2, 3})
}

func testCreateCascadeStopsAtGap(t *testing.T, newStore Factory) {
	s := newStore(t)
	mustCreateList(t, s, "work")
	mustCreateItem(t, s, "A", "work", 1)
	mustCreateItem(t, s, "B", "work", 2)
	mustCreateItem(t, s, "D", "work", 5)

	// The cascade fills the gap at 3 and leaves D alone.
	mustCreateItem(t, s, "C", "work", 1)
	assertListOrder(t, s, "work", []string{"C", "A", "B", "D"}, []int{1, 2, 3, 5})
}

func testUpdateToEarlierPriority(t *testing.T, newStore Factory) {
	s := newStore(t)
	mustCreateList(t, s, "work")
	mustCreateItem(t, s, "A", "work", 1)
	mustCreateItem(t, s, "B", "work", 2)
	mustCreateItem(t, s, "C", "work", 3)

	// Moving B to priority 1 frees 2, which A takes.
	p := 1
	item, ok, err := s.UpdateItem(context.Background(), "B", data.ItemPatch{Priority: &p})
	if err != nil || !ok {
		t.Fatalf("Update returned ok=%v err=%v.", ok, err)
	}
	if item.Priority != 1 {
		t.Errorf("Updated item has priority %d, want 1.", item.Priority)
	}
	assertListOrder(t, s, "work", []string{"B", "A", "C"}, []int{1, 2, 3})
}

func testUpdateToLaterPriority(t *testing.T, newStore Factory) {
	s := newStore(t)
	mustCreateList(t, s, "work")
	mustCreateItem(t, s, "A", "work", 1)
	mustCreateItem(t, s, "B", "work", 2)
	mustCreateItem(t, s, "C", "work", 3)

	// Moving A to priority 3 displaces C.
	p := 3
	if _, ok, err := s.UpdateItem(context.Background(), "A", data.ItemPatch{Priority: &p}); err != nil || !ok {
		t.Fatalf("Update returned ok=%v err=%v.", ok, err)
	}
	assertListOrder(t, s, "work", []string{"B", "A", "C"}, []int{2, 3, 4})
}

func testMoveToOtherList(t *testing.T, newStore Factory) {
	s := newStore(t)
	ctx := context.Background()
	mustCreateList(t, s, "work")
	mustCreateList(t, s, "home")
	mustCreateItem(t, s, "A", "work", 1)
	mustCreateItem(t, s, "B", "work", 2)
	mustCreateItem(t, s, "X", "home", 1)

	// Moving A to home at priority 1 shifts X; work is left alone.
	list := "home"
	p := 1
	item, ok, err := s.UpdateItem(ctx, "A", data.ItemPatch{ToDoList: &list, Priority: &p})
	if err != nil || !ok {
		t.Fatalf("Update returned ok=%v err=%v.", ok, err)
	}
	if item.ToDoList != "home" || item.Priority != 1 {
		t.Errorf("Moved item came back wrong: %+v", item)
	}
	assertListOrder(t, s, "home", []string{"A", "X"}, []int{1, 2})
	assertListOrder(t, s, "work", []string{"B"}, []int{2})

	// Moving to a list that doesn't exist is refused.
	bad := "i_do_not_exist"
	if _, _, err := s.UpdateItem(ctx, "A", data.ItemPatch{ToDoList: &bad}); !errors.Is(err, data.ErrNoSuchList) {
		t.Errorf("Move to missing list returned %v, want ErrNoSuchList.", err)
	}
	// And the failed move must not have touched the item.
	item, _, _ = s.GetItem(ctx, "A")
	if item.ToDoList != "home" || item.Priority != 1 {
		t.Errorf("Failed move altered the item: %+v", item)
	}
}

func testPatchDescriptionOnly(t *testing.T, newStore Factory) {
	s := newStore(t)
	mustCreateList(t, s, "work")
	mustCreateItem(t, s, "A", "work", 1)
	mustCreateItem(t, s, "B", "work", 2)

	// A description-only patch must not disturb priorities.
	desc := "rewritten"
	item, ok, err := s.UpdateItem(context.Background(), "A", data.ItemPatch{Description: &desc})
	if err != nil || !ok {
		t.Fatalf("Update returned ok=%v err=%v.", ok, err)
	}
	if item.Description != "rewritten" || item.Priority != 1 || item.ToDoList != "work" {
		t.Errorf("Patched item came back wrong: %+v", item)
	}
	assertListOrder(t, s, "work", []string{"A", "B"}, []int{1, 2})
}

func testListWithItemsOrdering(t *testing.T, newStore Factory) {
	s := newStore(t)
	mustCreateList(t, s, "work")
	// Insert out of priority order on purpose.
	mustCreateItem(t, s, "C", "work", 7)
	mustCreateItem(t, s, "A", "work", 1)
	mustCreateItem(t, s, "B", "work", 3)

	assertListOrder(t, s, "work", []string{"A", "B", "C"}, []int{1, 3, 7})
}

func testListItemsOrdering(t *testing.T, newStore Factory) {
	s := newStore(t)
	mustCreateList(t, s, "work")
	mustCreateList(t, s, "home")
	mustCreateItem(t, s, "W2", "work", 2)
	mustCreateItem(t, s, "H1", "home", 1)
	mustCreateItem(t, s, "W1", "work", 1)

	items, err := s.ListItems(context.Background())
	if err != nil {
		t.Fatalf("Error listing items: %v", err)
	}
	want := []string{"H1", "W1", "W2"}
	if len(items) != len(want) {
		t.Fatalf("Got %d items, want %d.", len(items), len(want))
	}
	for i, item := range items {
		if item.Name != want[i] {
			t.Errorf("Position %d holds %s, want %s.", i, item.Name, want[i])
		}
	}
}
