package data

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	good := []string{"work", "work_stuff", "List2", "a", strings.Repeat("x", MaxNameLen)}
	for _, name := range good {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) unexpectedly failed: %v", name, err)
		}
	}
	bad := []string{"", "has space", "has-dash", "has/slash", "naïve", strings.Repeat("x", MaxNameLen+1)}
	for _, name := range bad {
		if err := ValidateName(name); err == nil {
			t.Errorf("ValidateName(%q) unexpectedly passed.", name)
		}
	}
}

func TestValidateDescription(t *testing.T) {
	if err := ValidateDescription(strings.Repeat("x", MaxDescriptionLen)); err != nil {
		t.Errorf("Max-length description unexpectedly failed: %v", err)
	}
	if err := ValidateDescription(strings.Repeat("x", MaxDescriptionLen+1)); err == nil {
		t.Error("Overlong description unexpectedly passed.")
	}
	// Empty descriptions are fine.
	if err := ValidateDescription(""); err != nil {
		t.Errorf("Empty description unexpectedly failed: %v", err)
	}
}

func TestValidatePriority(t *testing.T) {
	if err := ValidatePriority(0); err != nil {
		t.Errorf("Priority 0 unexpectedly failed: %v", err)
	}
	if err := ValidatePriority(-1); err == nil {
		t.Error("Negative priority unexpectedly passed.")
	}
}

func TestValidateItem(t *testing.T) {
	item := ToDoItem{Name: "FirstItem", Description: "first", ToDoList: "work", Priority: 1}
	if err := ValidateItem(item); err != nil {
		t.Errorf("Valid item unexpectedly failed: %v", err)
	}

	broken := item
	broken.ToDoList = "no such list!"
	err := ValidateItem(broken)
	if err == nil {
		t.Fatal("Item with bad list name unexpectedly passed.")
	}
	// The complaint should point at the list field, not the name field.
	if !strings.Contains(err.Error(), "to_do_list") {
		t.Errorf("Error does not mention to_do_list: %v", err)
	}
}
