package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/kslattery/todolistd/data"
	"github.com/kslattery/todolistd/memstore"
)

// newTestRouter builds the full router over a fresh in-memory store, so tests
// exercise the same middleware stack a real server runs.
func newTestRouter() http.Handler {
	h := &Handler{
		Store: memstore.New(),
		Log:   log.New(io.Discard),
	}
	return NewRouter(h, RouterOptions{})
}

// do runs one request through the router and returns the recorder.
func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeInto fails the test if the recorded body is not the expected JSON shape.
func decodeInto(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Error decoding response body %q: %v", w.Body.String(), err)
	}
}

func TestListLifecycle(t *testing.T) {
	router := newTestRouter()

	// Create a list.
	w := do(t, router, "POST", "/api/v1/todolist",
		`{"name": "work", "description": "things to do at work"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Create returned %d, body %s", w.Code, w.Body.String())
	}
	var l data.ToDoList
	decodeInto(t, w, &l)
	if l.Name != "work" || l.Description != "things to do at work" {
		t.Errorf("Created list came back wrong: %+v", l)
	}
	if l.CreatedAt.IsZero() || l.UpdatedAt.IsZero() {
		t.Errorf("Timestamps not set on create: %+v", l)
	}

	// Did we really add the list?
	w = do(t, router, "GET", "/api/v1/todolist/work", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Get returned %d, body %s", w.Code, w.Body.String())
	}

	// A duplicate name is a client error.
	w = do(t, router, "POST", "/api/v1/todolist",
		`{"name": "work", "description": "again"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Duplicate create returned %d, want 400.", w.Code)
	}

	// PUT replaces the description.
	w = do(t, router, "PUT", "/api/v1/todolist/work",
		`{"name": "work", "description": "replaced"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Put returned %d, body %s", w.Code, w.Body.String())
	}
	decodeInto(t, w, &l)
	if l.Description != "replaced" {
		t.Errorf("Put did not replace description: %+v", l)
	}

	// PATCH with only a description also works.
	w = do(t, router, "PATCH", "/api/v1/todolist/work", `{"description": "patched"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Patch returned %d, body %s", w.Code, w.Body.String())
	}
	decodeInto(t, w, &l)
	if l.Description != "patched" {
		t.Errorf("Patch did not change description: %+v", l)
	}

	// DELETE answers 204 with no body.
	w = do(t, router, "DELETE", "/api/v1/todolist/work", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("Delete returned %d, want 204.", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Delete wrote a body: %s", w.Body.String())
	}

	// And now the list is gone.
	w = do(t, router, "GET", "/api/v1/todolist/work", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Get after delete returned %d, want 404.", w.Code)
	}
}

func TestListNotFound(t *testing.T) {
	router := newTestRouter()
	paths := []struct {
		method, path, body string
	}{
		{"GET", "/api/v1/todolist/absent", ""},
		{"PUT", "/api/v1/todolist/absent", `{"name": "absent", "description": "x"}`},
		{"PATCH", "/api/v1/todolist/absent", `{"description": "x"}`},
		{"DELETE", "/api/v1/todolist/absent", ""},
		{"GET", "/api/v1/todolist/absent/with_items", ""},
		{"GET", "/api/v1/todoitem/absent", ""},
		{"DELETE", "/api/v1/todoitem/absent", ""},
		{"PATCH", "/api/v1/todoitem/absent", `{"description": "x"}`},
	}
	for _, p := range paths {
		w := do(t, router, p.method, p.path, p.body)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s %s returned %d, want 404.", p.method, p.path, w.Code)
			continue
		}
		var em ErrorMessage
		decodeInto(t, w, &em)
		if em.Error != notFoundMessage {
			t.Errorf("%s %s error body %q, want %q.", p.method, p.path, em.Error, notFoundMessage)
		}
	}
}

func TestListValidation(t *testing.T) {
	router := newTestRouter()
	bodies := []string{
		`{"description": "missing name"}`,
		`{"name": "work"}`,
		`{"name": "bad name!", "description": "x"}`,
		`{"name": "` + strings.Repeat("x", data.MaxNameLen+1) + `", "description": "x"}`,
		`{"name": "work", "description": "` + strings.Repeat("x", data.MaxDescriptionLen+1) + `"}`,
		`this is not JSON`,
	}
	for _, body := range bodies {
		w := do(t, router, "POST", "/api/v1/todolist", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Create with body %.40q returned %d, want 400.", body, w.Code)
		}
	}
}

func TestListNameImmutable(t *testing.T) {
	router := newTestRouter()
	do(t, router, "POST", "/api/v1/todolist", `{"name": "work", "description": "x"}`)

	w := do(t, router, "PUT", "/api/v1/todolist/work",
		`{"name": "renamed", "description": "x"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Put with new name returned %d, want 400.", w.Code)
	}
	w = do(t, router, "PATCH", "/api/v1/todolist/work", `{"name": "renamed"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Patch with new name returned %d, want 400.", w.Code)
	}
	// A matching name in a PATCH body is tolerated.
	w = do(t, router, "PATCH", "/api/v1/todolist/work",
		`{"name": "work", "description": "still work"}`)
	if w.Code != http.StatusOK {
		t.Errorf("Patch with matching name returned %d, want 200.", w.Code)
	}
}

func TestItemLifecycle(t *testing.T) {
	router := newTestRouter()
	do(t, router, "POST", "/api/v1/todolist", `{"name": "work", "description": "x"}`)

	// Create an item.
	w := do(t, router, "POST", "/api/v1/todoitem",
		`{"name": "FirstItem", "description": "first", "to_do_list": "work", "priority": 1}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Create returned %d, body %s", w.Code, w.Body.String())
	}
	var item data.ToDoItem
	decodeInto(t, w, &item)
	if item.Name != "FirstItem" || item.ToDoList != "work" || item.Priority != 1 {
		t.Errorf("Created item came back wrong: %+v", item)
	}

	// Did we really add the item?
	w = do(t, router, "GET", "/api/v1/todoitem/FirstItem", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Get returned %d, body %s", w.Code, w.Body.String())
	}

	// PATCH just the description.
	w = do(t, router, "PATCH", "/api/v1/todoitem/FirstItem", `{"description": "patched"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Patch returned %d, body %s", w.Code, w.Body.String())
	}
	decodeInto(t, w, &item)
	if item.Description != "patched" || item.Priority != 1 {
		t.Errorf("Patch went wrong: %+v", item)
	}

	// PUT requires all fields.
	w = do(t, router, "PUT", "/api/v1/todoitem/FirstItem", `{"description": "x"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Partial put returned %d, want 400.", w.Code)
	}
	w = do(t, router, "PUT", "/api/v1/todoitem/FirstItem",
		`{"name": "FirstItem", "description": "replaced", "to_do_list": "work", "priority": 4}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Put returned %d, body %s", w.Code, w.Body.String())
	}
	decodeInto(t, w, &item)
	if item.Description != "replaced" || item.Priority != 4 {
		t.Errorf("Put went wrong: %+v", item)
	}

	// The name is immutable.
	w = do(t, router, "PUT", "/api/v1/todoitem/FirstItem",
		`{"name": "Renamed", "description": "x", "to_do_list": "work", "priority": 4}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Put with new name returned %d, want 400.", w.Code)
	}

	// DELETE answers 204, then the item is gone.
	w = do(t, router, "DELETE", "/api/v1/todoitem/FirstItem", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("Delete returned %d, want 204.", w.Code)
	}
	w = do(t, router, "GET", "/api/v1/todoitem/FirstItem", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Get after delete returned %d, want 404.", w.Code)
	}
}

func TestItemValidation(t *testing.T) {
	router := newTestRouter()
	do(t, router, "POST", "/api/v1/todolist", `{"name": "work", "description": "x"}`)

	bodies := []string{
		`{"description": "x", "to_do_list": "work", "priority": 1}`,
		`{"name": "A", "description": "x", "priority": 1}`,
		`{"name": "A", "description": "x", "to_do_list": "work", "priority": -1}`,
		`{"name": "A", "description": "x", "to_do_list": "no_such_list", "priority": 1}`,
		`{"name": "bad name!", "description": "x", "to_do_list": "work", "priority": 1}`,
	}
	for _, body := range bodies {
		w := do(t, router, "POST", "/api/v1/todoitem", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Create with body %.60q returned %d, want 400.", body, w.Code)
		}
	}

	// Moving an item to an absent list is also a 400, not a 404: the item
	// itself exists.
	do(t, router, "POST", "/api/v1/todoitem",
		`{"name": "A", "description": "x", "to_do_list": "work", "priority": 1}`)
	w := do(t, router, "PATCH", "/api/v1/todoitem/A", `{"to_do_list": "no_such_list"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Move to absent list returned %d, want 400.", w.Code)
	}
}

func TestPriorityCascadeOverHTTP(t *testing.T) {
	router := newTestRouter()
	do(t, router, "POST", "/api/v1/todolist", `{"name": "work", "description": "x"}`)
	do(t, router, "POST", "/api/v1/todoitem",
		`{"name": "A", "description": "x", "to_do_list": "work", "priority": 1}`)
	do(t, router, "POST", "/api/v1/todoitem",
		`{"name": "B", "description": "x", "to_do_list": "work", "priority": 2}`)

	// Creating C at priority 1 pushes A to 2 and B to 3.
	w := do(t, router, "POST", "/api/v1/todoitem",
		`{"name": "C", "description": "x", "to_do_list": "work", "priority": 1}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Create returned %d, body %s", w.Code, w.Body.String())
	}

	w = do(t, router, "GET", "/api/v1/todolist/work/with_items", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Get with_items returned %d, body %s", w.Code, w.Body.String())
	}
	var lwi data.ListWithItems
	decodeInto(t, w, &lwi)
	wantNames := []string{"C", "A", "B"}
	wantPriorities := []int{1, 2, 3}
	if len(lwi.Items) != 3 {
		t.Fatalf("Got %d items, want 3: %+v", len(lwi.Items), lwi.Items)
	}
	for i, item := range lwi.Items {
		if item.Name != wantNames[i] || item.Priority != wantPriorities[i] {
			t.Errorf("Position %d holds %s(%d), want %s(%d).",
				i, item.Name, item.Priority, wantNames[i], wantPriorities[i])
		}
	}
}

func TestListWithItemsAndCollectionEndpoints(t *testing.T) {
	router := newTestRouter()
	do(t, router, "POST", "/api/v1/todolist", `{"name": "home", "description": "x"}`)
	do(t, router, "POST", "/api/v1/todolist", `{"name": "work", "description": "x"}`)
	do(t, router, "POST", "/api/v1/todoitem",
		`{"name": "W1", "description": "x", "to_do_list": "work", "priority": 1}`)
	do(t, router, "POST", "/api/v1/todoitem",
		`{"name": "H1", "description": "x", "to_do_list": "home", "priority": 1}`)

	// Lists come back sorted by name.
	w := do(t, router, "GET", "/api/v1/todolist", "")
	var lists []data.ToDoList
	decodeInto(t, w, &lists)
	if len(lists) != 2 || lists[0].Name != "home" || lists[1].Name != "work" {
		t.Errorf("Lists not sorted by name: %+v", lists)
	}

	// Items come back sorted by list then priority.
	w = do(t, router, "GET", "/api/v1/todoitem", "")
	var items []data.ToDoItem
	decodeInto(t, w, &items)
	if len(items) != 2 || items[0].Name != "H1" || items[1].Name != "W1" {
		t.Errorf("Items not sorted by list then priority: %+v", items)
	}

	// Responses carry the nosniff header and a JSON content type.
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options is %q, want nosniff.", got)
	}
	if got := w.Header().Get("Content-Type"); !strings.HasPrefix(got, "application/json") {
		t.Errorf("Content-Type is %q, want application/json.", got)
	}
}

func TestAllowedHosts(t *testing.T) {
	h := &Handler{Store: memstore.New(), Log: log.New(io.Discard)}
	router := NewRouter(h, RouterOptions{AllowedHosts: []string{"todo.example.com"}})

	req := httptest.NewRequest("GET", "/api/v1/todolist", nil)
	req.Host = "todo.example.com:8080"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Allowed host returned %d, want 200.", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/v1/todolist", nil)
	req.Host = "evil.example.com"
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Disallowed host returned %d, want 400.", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter()
	w := do(t, router, "GET", "/healthz", "")
	if w.Code != http.StatusOK {
		t.Errorf("Healthz returned %d, want 200.", w.Code)
	}
}
