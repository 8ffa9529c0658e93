// Package litestore is the default data.Store implementation, backed by a
// local SQLite database file via the cgo-free modernc.org/sqlite driver.
// It is what a server falls back to when no database URL is configured.
package litestore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/kslattery/todolistd/data"
)

//go:embed schema.sql
var schemaSQL string

// timeFormat is how timestamps are stored in the TEXT columns.
const timeFormat = time.RFC3339Nano

// LiteStore is a data.Store backed by a single SQLite database file.
type LiteStore struct {
	path string
	db   *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures the schema exists. Pass ":memory:" for a throwaway database.
func Open(path string) (*LiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("litestore: database path not set")
	}
	// Cascading deletes depend on the foreign_keys pragma, which SQLite
	// leaves off by default.
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("litestore: problem opening %s: %v", path, err)
	}
	// SQLite allows one writer at a time; funneling all connections
	// through one avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("litestore: problem creating schema: %v", err)
	}
	return &LiteStore{path: path, db: db}, nil
}

// String reports where the data lives; handy at startup.
func (s *LiteStore) String() string {
	return "sqlite:" + s.path
}

// Close closes the underlying database handle.
func (s *LiteStore) Close() {
	s.db.Close()
}

func (s *LiteStore) ListLists(ctx context.Context) ([]data.ToDoList, error) {
	rows, err := s.db.QueryContext(ctx, `
		select name, description, created_at, updated_at
		  from todo_lists
	  order by name`)
	if err != nil {
		return nil, fmt.Errorf("litestore: problem listing todo lists: %v", err)
	}
	defer rows.Close()
	lists := []data.ToDoList{}
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

func (s *LiteStore) GetList(ctx context.Context, name string) (data.ToDoList, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		select name, description, created_at, updated_at
		  from todo_lists
		 where name = ?`, name)
	l, err := scanList(row)
	if errors.Is(err, sql.ErrNoRows) {
		return data.ToDoList{}, false, nil
	}
	if err != nil {
		return data.ToDoList{}, false, err
	}
	return l, true, nil
}

func (s *LiteStore) CreateList(ctx context.Context, name, description string) (data.ToDoList, error) {
	now := time.Now().UTC()
	ts := now.Format(timeFormat)
	_, err := s.db.ExecContext(ctx, `
		insert into todo_lists (name, description, created_at, updated_at)
		values (?, ?, ?, ?)`, name, description, ts, ts)
	if err != nil {
		return data.ToDoList{}, translateErr(err, "problem creating todo list")
	}
	return data.ToDoList{Name: name, Description: description, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *LiteStore) UpdateList(ctx context.Context, name, description string) (data.ToDoList, bool, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		update todo_lists
		   set description = ?, updated_at = ?
		 where name = ?`, description, now.Format(timeFormat), name)
	if err != nil {
		return data.ToDoList{}, false, fmt.Errorf("litestore: problem updating todo list: %v", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return data.ToDoList{}, false, fmt.Errorf("litestore: problem updating todo list: %v", err)
	}
	if count == 0 {
		return data.ToDoList{}, false, nil
	}
	return s.GetList(ctx, name)
}

func (s *LiteStore) DeleteList(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `delete from todo_lists where name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("litestore: problem deleting todo list: %v", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("litestore: problem deleting todo list: %v", err)
	}
	return count > 0, nil
}

func (s *LiteStore) GetListWithItems(ctx context.Context, name string) (data.ListWithItems, bool, error) {
	l, ok, err := s.GetList(ctx, name)
	if err != nil || !ok {
		return data.ListWithItems{}, ok, err
	}
	rows, err := s.db.QueryContext(ctx, `
		select name, description, to_do_list, priority, created_at, updated_at
		  from todo_items
		 where to_do_list = ?
	  order by priority`, name)
	if err != nil {
		return data.ListWithItems{}, false, fmt.Errorf("litestore: problem listing items of %s: %v", name, err)
	}
	defer rows.Close()
	items := []data.ToDoItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return data.ListWithItems{}, false, err
		}
		items = append(items, item)
	}
	return data.ListWithItems{List: l, Items: items}, true, rows.Err()
}

func (s *LiteStore) ListItems(ctx context.Context) ([]data.ToDoItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		select name, description, to_do_list, priority, created_at, updated_at
		  from todo_items
	  order by to_do_list, priority`)
	if err != nil {
		return nil, fmt.Errorf("litestore: problem listing todo items: %v", err)
	}
	defer rows.Close()
	items := []data.ToDoItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *LiteStore) GetItem(ctx context.Context, name string) (data.ToDoItem, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		select name, description, to_do_list, priority, created_at, updated_at
		  from todo_items
		 where name = ?`, name)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return data.ToDoItem{}, false, nil
	}
	if err != nil {
		return data.ToDoItem{}, false, err
	}
	return item, true, nil
}

func (s *LiteStore) CreateItem(ctx context.Context, item data.ToDoItem) (data.ToDoItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return data.ToDoItem{}, fmt.Errorf("litestore: problem starting transaction: %v", err)
	}
	defer tx.Rollback()

	ok, err := listExists(ctx, tx, item.ToDoList)
	if err != nil {
		return data.ToDoItem{}, err
	}
	if !ok {
		return data.ToDoItem{}, data.ErrNoSuchList
	}
	if err := place(ctx, tx, item.ToDoList, item.Priority); err != nil {
		return data.ToDoItem{}, err
	}

	now := time.Now().UTC()
	ts := now.Format(timeFormat)
	_, err = tx.ExecContext(ctx, `
		insert into todo_items (name, description, to_do_list, priority, created_at, updated_at)
		values (?, ?, ?, ?, ?, ?)`,
		item.Name, item.Description, item.ToDoList, item.Priority, ts, ts)
	if err != nil {
		return data.ToDoItem{}, translateErr(err, "problem creating todo item")
	}
	if err := tx.Commit(); err != nil {
		return data.ToDoItem{}, fmt.Errorf("litestore: problem committing todo item: %v", err)
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	return item, nil
}

func (s *LiteStore) UpdateItem(ctx context.Context, name string, patch data.ItemPatch) (data.ToDoItem, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return data.ToDoItem{}, false, fmt.Errorf("litestore: problem starting transaction: %v", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		select name, description, to_do_list, priority, created_at, updated_at
		  from todo_items
		 where name = ?`, name)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return data.ToDoItem{}, false, nil
	}
	if err != nil {
		return data.ToDoItem{}, false, err
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

	if merged.ToDoList != item.ToDoList {
		ok, err := listExists(ctx, tx, merged.ToDoList)
		if err != nil {
			return data.ToDoItem{}, false, err
		}
		if !ok {
			return data.ToDoItem{}, false, data.ErrNoSuchList
		}
	}

	if merged.ToDoList != item.ToDoList || merged.Priority != item.Priority {
		// Park the item below the legal range so the shift pass in its
		// destination list cannot collide with its current slot.
		_, err := tx.ExecContext(ctx, `update todo_items set priority = ? where name = ?`,
			data.ParkedPriority, name)
		if err != nil {
			return data.ToDoItem{}, false, fmt.Errorf("litestore: problem parking todo item: %v", err)
		}
		if err := place(ctx, tx, merged.ToDoList, merged.Priority); err != nil {
			return data.ToDoItem{}, false, err
		}
	}

	merged.UpdatedAt = time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		update todo_items
		   set description = ?, to_do_list = ?, priority = ?, updated_at = ?
		 where name = ?`,
		merged.Description, merged.ToDoList, merged.Priority,
		merged.UpdatedAt.Format(timeFormat), name)
	if err != nil {
		return data.ToDoItem{}, false, translateErr(err, "problem updating todo item")
	}
	if err := tx.Commit(); err != nil {
		return data.ToDoItem{}, false, fmt.Errorf("litestore: problem committing todo item: %v", err)
	}
	return merged, true, nil
}

func (s *LiteStore) DeleteItem(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `delete from todo_items where name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("litestore: problem deleting todo item: %v", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("litestore: problem deleting todo item: %v", err)
	}
	return count > 0, nil
}

// place frees priority p in the named list, cascading colliding items down
// by one. Shifts run in descending priority order so the uniqueness
// constraint holds after every statement.
func place(ctx context.Context, tx *sql.Tx, list string, p int) error {
	rows, err := tx.QueryContext(ctx, `
		select name, priority
		  from todo_items
		 where to_do_list = ?
		   and priority >= ?
	  order by priority`, list, p)
	if err != nil {
		return fmt.Errorf("litestore: problem loading items to shift: %v", err)
	}
	defer rows.Close()
	var run []data.ToDoItem
	for rows.Next() {
		var item data.ToDoItem
		if err := rows.Scan(&item.Name, &item.Priority); err != nil {
			return fmt.Errorf("litestore: problem scanning item to shift: %v", err)
		}
		run = append(run, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("litestore: problem loading items to shift: %v", err)
	}

	ts := time.Now().UTC().Format(timeFormat)
	for _, shift := range data.PlanShifts(run, p) {
		_, err := tx.ExecContext(ctx, `
			update todo_items
			   set priority = ?, updated_at = ?
			 where name = ?`, shift.Priority, ts, shift.Name)
		if err != nil {
			return fmt.Errorf("litestore: problem shifting item %s: %v", shift.Name, err)
		}
	}
	return nil
}

func listExists(ctx context.Context, tx *sql.Tx, name string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, `select 1 from todo_lists where name = ?`, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("litestore: problem checking todo list: %v", err)
	}
	return true, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanList(s scanner) (data.ToDoList, error) {
	var l data.ToDoList
	var created, updated string
	if err := s.Scan(&l.Name, &l.Description, &created, &updated); err != nil {
		return data.ToDoList{}, err
	}
	var err error
	if l.CreatedAt, err = time.Parse(timeFormat, created); err != nil {
		return data.ToDoList{}, fmt.Errorf("litestore: bad created_at for list %s: %v", l.Name, err)
	}
	if l.UpdatedAt, err = time.Parse(timeFormat, updated); err != nil {
		return data.ToDoList{}, fmt.Errorf("litestore: bad updated_at for list %s: %v", l.Name, err)
	}
	return l, nil
}

func scanItem(s scanner) (data.ToDoItem, error) {
	var item data.ToDoItem
	var created, updated string
	if err := s.Scan(&item.Name, &item.Description, &item.ToDoList, &item.Priority, &created, &updated); err != nil {
		return data.ToDoItem{}, err
	}
	var err error
	if item.CreatedAt, err = time.Parse(timeFormat, created); err != nil {
		return data.ToDoItem{}, fmt.Errorf("litestore: bad created_at for item %s: %v", item.Name, err)
	}
	if item.UpdatedAt, err = time.Parse(timeFormat, updated); err != nil {
		return data.ToDoItem{}, fmt.Errorf("litestore: bad updated_at for item %s: %v", item.Name, err)
	}
	return item, nil
}

// translateErr repackages SQLite constraint violations as domain errors.
// Anything else is rewrapped with %v so driver errors stay internal.
func translateErr(err error, msg string) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return data.ErrDuplicateName
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return data.ErrNoSuchList
		}
	}
	return fmt.Errorf("litestore: %s: %v", msg, err)
}
