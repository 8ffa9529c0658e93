// Package memstore is a map-backed implementation of data.Store. It is used
// by the handler tests and is handy for ephemeral servers; nothing survives
// a restart.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kslattery/todolistd/data"
)

// MemStore keeps lists and items in maps keyed by name. A single mutex
// serializes all operations, which stands in for the transactional
// guarantees of the SQL stores.
type MemStore struct {
	mu    sync.Mutex
	lists map[string]data.ToDoList
	items map[string]data.ToDoItem
}

// New returns an empty MemStore.
func New() *MemStore {
	return &MemStore{
		lists: make(map[string]data.ToDoList),
		items: make(map[string]data.ToDoItem),
	}
}

func (m *MemStore) ListLists(_ context.Context) ([]data.ToDoList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lists := make([]data.ToDoList, 0, len(m.lists))
	for _, l := range m.lists {
		lists = append(lists, l)
	}
	sort.Slice(lists, func(i, j int) bool { return lists[i].Name < lists[j].Name })
	return lists, nil
}

func (m *MemStore) GetList(_ context.Context, name string) (data.ToDoList, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lists[name]
	return l, ok, nil
}

func (m *MemStore) CreateList(_ context.Context, name, description string) (data.ToDoList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lists[name]; ok {
		return data.ToDoList{}, data.ErrDuplicateName
	}
	now := time.Now().UTC()
	l := data.ToDoList{
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.lists[name] = l
	return l, nil
}

func (m *MemStore) UpdateList(_ context.Context, name, description string) (data.ToDoList, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lists[name]
	if !ok {
		return data.ToDoList{}, false, nil
	}
	l.Description = description
	l.UpdatedAt = time.Now().UTC()
	m.lists[name] = l
	return l, true, nil
}

func (m *MemStore) DeleteList(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lists[name]; !ok {
		return false, nil
	}
	delete(m.lists, name)
	// Cascade, like the SQL stores' ON DELETE CASCADE.
	for itemName, item := range m.items {
		if item.ToDoList == name {
			delete(m.items, itemName)
		}
	}
	return true, nil
}

func (m *MemStore) GetListWithItems(_ context.Context, name string) (data.ListWithItems, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lists[name]
	if !ok {
		return data.ListWithItems{}, false, nil
	}
	return data.ListWithItems{List: l, Items: m.itemsOf(name)}, true, nil
}

func (m *MemStore) ListItems(_ context.Context) ([]data.ToDoItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]data.ToDoItem, 0, len(m.items))
	for _, item := range m.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].ToDoList != items[j].ToDoList {
			return items[i].ToDoList < items[j].ToDoList
		}
		return items[i].Priority < items[j].Priority
	})
	return items, nil
}

func (m *MemStore) GetItem(_ context.Context, name string) (data.ToDoItem, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[name]
	return item, ok, nil
}

func (m *MemStore) CreateItem(_ context.Context, item data.ToDoItem) (data.ToDoItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[item.Name]; ok {
		return data.ToDoItem{}, data.ErrDuplicateName
	}
	if _, ok := m.lists[item.ToDoList]; !ok {
		return data.ToDoItem{}, data.ErrNoSuchList
	}
	m.place(item.ToDoList, item.Priority)
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	m.items[item.Name] = item
	return item, nil
}

func (m *MemStore) UpdateItem(_ context.Context, name string, patch data.ItemPatch) (data.ToDoItem, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[name]
	if !ok {
		return data.ToDoItem{}, false, nil
	}
	merged := item
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	if patch.ToDoList != nil {
		merged.ToDoList = *patch.ToDoList
	}
	if patch.Priority != nil {
		merged.Priority = *patch.Priority
	}
	if _, ok := m.lists[merged.ToDoList]; !ok {
		return data.ToDoItem{}, false, data.ErrNoSuchList
	}
	if merged.ToDoList != item.ToDoList || merged.Priority != item.Priority {
		// Park the item so the shift pass never sees it, then free
		// the wanted slot in the destination list.
		item.Priority = data.ParkedPriority
		m.items[name] = item
		m.place(merged.ToDoList, merged.Priority)
	}
	merged.UpdatedAt = time.Now().UTC()
	m.items[name] = merged
	return merged, true, nil
}

func (m *MemStore) DeleteItem(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[name]; !ok {
		return false, nil
	}
	delete(m.items, name)
	return true, nil
}

// Close is a no-op; MemStore holds no external resources.
func (m *MemStore) Close() {}

// itemsOf returns the items of a list in ascending priority order.
// Callers must hold the mutex.
func (m *MemStore) itemsOf(list string) []data.ToDoItem {
	var items []data.ToDoItem
	for _, item := range m.items {
		if item.ToDoList == list {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Priority < items[j].Priority })
	return items
}

// place frees priority p in the named list by cascading colliding items
// down. Callers must hold the mutex and must have parked or not yet
// inserted the item being placed.
func (m *MemStore) place(list string, p int) {
	var run []data.ToDoItem
	for _, item := range m.itemsOf(list) {
		if item.Priority >= p {
			run = append(run, item)
		}
	}
	now := time.Now().UTC()
	for _, shift := range data.PlanShifts(run, p) {
		item := m.items[shift.Name]
		item.Priority = shift.Priority
		item.UpdatedAt = now
		m.items[shift.Name] = item
	}
}
