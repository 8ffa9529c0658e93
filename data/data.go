package data

import (
	"regexp"
	"time"
)

// Field length limits, matching the column sizes used by the SQL backends.
const (
	MaxNameLen        = 25
	MaxDescriptionLen = 255
)

// Names are what lists and items are addressed by in URLs, so only
// alphanumerics and underscores are allowed.
var nameRegexp = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ToDoList is a named container of todo items.
type ToDoList struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToDoItem is a unit of work belonging to exactly one list. Priority is
// unique within the owning list; lower numbers sort earlier.
type ToDoItem struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ToDoList    string    `json:"to_do_list"`
	Priority    int       `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListWithItems is a list together with its items in ascending
// priority order.
type ListWithItems struct {
	List  ToDoList   `json:"list"`
	Items []ToDoItem `json:"items"`
}

// ValidateName checks that a list or item name is usable as a URL path
// segment and fits the name column.
func ValidateName(name string) error {
	if name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if len(name) > MaxNameLen {
		return &ValidationError{Field: "name", Reason: "must be at most 25 characters"}
	}
	if !nameRegexp.MatchString(name) {
		return &ValidationError{Field: "name", Reason: "must contain only letters, digits, and underscores"}
	}
	return nil
}

// ValidateDescription checks that a description fits the description column.
func ValidateDescription(description string) error {
	if len(description) > MaxDescriptionLen {
		return &ValidationError{Field: "description", Reason: "must be at most 255 characters"}
	}
	return nil
}

// ValidatePriority checks that a priority is in the legal range. Negative
// priorities are reserved for internal use during placement.
func ValidatePriority(priority int) error {
	if priority < 0 {
		return &ValidationError{Field: "priority", Reason: "must not be negative"}
	}
	return nil
}

// ValidateList validates all client-settable fields of a list.
func ValidateList(name, description string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	return ValidateDescription(description)
}

// ValidateItem validates all client-settable fields of an item.
func ValidateItem(item ToDoItem) error {
	if err := ValidateName(item.Name); err != nil {
		return err
	}
	if err := ValidateDescription(item.Description); err != nil {
		return err
	}
	if err := ValidateName(item.ToDoList); err != nil {
		return &ValidationError{Field: "to_do_list", Reason: "must name a todo list"}
	}
	return ValidatePriority(item.Priority)
}
