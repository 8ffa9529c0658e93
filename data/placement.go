package data

// ParkedPriority is the sentinel a store assigns to the item being placed
// before shifting its neighbors. It sits below the API-legal range, so the
// shift pass can never collide with it.
const ParkedPriority = -1

// Shift is one pending priority reassignment produced by PlanShifts.
type Shift struct {
	Name     string
	Priority int
}

// PlanShifts computes the renumbering needed to free priority p in a list.
//
// run must hold the list's items with priority >= p in ascending priority
// order, with the item being placed already excluded (parked). The cascade
// walks the contiguous block starting at p: each item occupying the next
// wanted slot is pushed down by one, and the first gap in the numbering
// stops the walk. Items beyond the gap keep their priorities.
//
// Shifts are returned in descending priority order. Each store must apply
// them in that order so the per-list uniqueness constraint holds after
// every single update, not just at the end.
func PlanShifts(run []ToDoItem, p int) []Shift {
	next := p
	var shifts []Shift
	for _, item := range run {
		if item.Priority > next {
			break
		}
		next++
		shifts = append(shifts, Shift{Name: item.Name, Priority: next})
	}
	for i, j := 0, len(shifts)-1; i < j; i, j = i+1, j-1 {
		shifts[i], shifts[j] = shifts[j], shifts[i]
	}
	return shifts
}
