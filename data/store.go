package data

import "context"

// ItemPatch is a partial update of an item's mutable fields. Nil fields are
// left unchanged. The name is immutable and therefore absent.
type ItemPatch struct {
	Description *string
	ToDoList    *string
	Priority    *int
}

// Store describes list and item storage, in case we want to have a
// different implementation than the pg implementation. All three of
// memstore, litestore, and pgstore implement it.
//
// Lookups follow the (value, ok, err) convention: ok is false when the named
// record does not exist, and err is reserved for real storage failures.
// Creates and updates that touch an item's (list, priority) pair perform
// priority placement atomically with the write.
type Store interface {
	// Lists, ordered by name.
	ListLists(ctx context.Context) ([]ToDoList, error)
	GetList(ctx context.Context, name string) (ToDoList, bool, error)
	// CreateList returns ErrDuplicateName when the name is taken.
	CreateList(ctx context.Context, name, description string) (ToDoList, error)
	// UpdateList replaces the description. The name is immutable.
	UpdateList(ctx context.Context, name, description string) (ToDoList, bool, error)
	// DeleteList removes the list and, cascading, all of its items.
	DeleteList(ctx context.Context, name string) (bool, error)
	GetListWithItems(ctx context.Context, name string) (ListWithItems, bool, error)

	// Items, ordered by list then priority.
	ListItems(ctx context.Context) ([]ToDoItem, error)
	GetItem(ctx context.Context, name string) (ToDoItem, bool, error)
	// CreateItem places the item at its requested priority, shifting
	// colliding items down. Returns ErrDuplicateName or ErrNoSuchList.
	CreateItem(ctx context.Context, item ToDoItem) (ToDoItem, error)
	// UpdateItem applies the patch, re-placing the item within its
	// (possibly new) list when the effective (list, priority) pair
	// changes. Returns ErrNoSuchList when moved to an absent list.
	UpdateItem(ctx context.Context, name string, patch ItemPatch) (ToDoItem, bool, error)
	DeleteItem(ctx context.Context, name string) (bool, error)

	Close()
}
