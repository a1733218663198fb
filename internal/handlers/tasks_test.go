package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/pliu/taskchat/internal/models"
)

func TestTasksRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct{ method, path string }{
		{"GET", "/api/tasks"},
		{"POST", "/api/tasks"},
		{"GET", "/api/tasks/1"},
		{"PUT", "/api/tasks/1"},
		{"PATCH", "/api/tasks/1/toggle"},
		{"DELETE", "/api/tasks/1"},
		{"POST", "/api/chat"},
	} {
		rr := env.do(t, tc.method, tc.path, nil, nil)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: got %d want %d", tc.method, tc.path, rr.Code, http.StatusUnauthorized)
		}
	}
}

func TestTaskLifecycle(t *testing.T) {
	env := newTestEnv(t)
	_, cookies := env.register(t, "a@x.com", "Secure123!")

	// Create with defaults.
	rr := env.do(t, "POST", "/api/tasks", map[string]string{"title": "Buy milk"}, cookies)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rr.Code, rr.Body.String())
	}
	task := decodeTask(t, rr)
	if task.Priority != "medium" || task.IsComplete {
		t.Errorf("Unexpected defaults: %+v", task)
	}

	// Read it back identically.
	rr = env.do(t, "GET", "/api/tasks/"+itoa(task.ID), nil, cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("get returned %d", rr.Code)
	}
	got := decodeTask(t, rr)
	if got.Title != "Buy milk" || got.ID != task.ID {
		t.Errorf("Round-trip mismatch: %+v", got)
	}

	// Toggle to complete.
	rr = env.do(t, "PATCH", "/api/tasks/"+itoa(task.ID)+"/toggle", nil, cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("toggle returned %d", rr.Code)
	}
	if !decodeTask(t, rr).IsComplete {
		t.Error("Expected task to be complete after toggle")
	}

	// Empty title update is rejected and changes nothing.
	rr = env.do(t, "PUT", "/api/tasks/"+itoa(task.ID), map[string]string{"title": ""}, cookies)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad update returned %d", rr.Code)
	}
	rr = env.do(t, "GET", "/api/tasks/"+itoa(task.ID), nil, cookies)
	if decodeTask(t, rr).Title != "Buy milk" {
		t.Error("Rejected update modified the task")
	}

	// Delete, then the task is gone.
	rr = env.do(t, "DELETE", "/api/tasks/"+itoa(task.ID), nil, cookies)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete returned %d", rr.Code)
	}
	rr = env.do(t, "GET", "/api/tasks/"+itoa(task.ID), nil, cookies)
	if rr.Code != http.StatusNotFound {
		t.Errorf("get after delete returned %d want %d", rr.Code, http.StatusNotFound)
	}
}

func TestTaskListNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	_, cookies := env.register(t, "a@x.com", "Secure123!")

	rr := env.do(t, "GET", "/api/tasks", nil, cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("list returned %d", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("Expected empty array, got %s", rr.Body.String())
	}

	for _, title := range []string{"first", "second"} {
		env.do(t, "POST", "/api/tasks", map[string]string{"title": title}, cookies)
	}

	rr = env.do(t, "GET", "/api/tasks", nil, cookies)
	var list []models.Task
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Title != "second" || list[1].Title != "first" {
		t.Errorf("Expected newest-first listing, got %+v", list)
	}
}

func TestTaskOwnershipAcrossUsers(t *testing.T) {
	env := newTestEnv(t)
	_, aliceCookies := env.register(t, "alice@x.com", "Secure123!")
	_, bobCookies := env.register(t, "bob@x.com", "Secure123!")

	rr := env.do(t, "POST", "/api/tasks", map[string]string{"title": "Alice's task"}, aliceCookies)
	task := decodeTask(t, rr)

	// Bob sees nothing in his listing.
	rr = env.do(t, "GET", "/api/tasks", nil, bobCookies)
	if strings.Contains(rr.Body.String(), "Alice") {
		t.Error("Bob's listing leaked Alice's task")
	}

	// Direct access yields 403 and never the task body.
	for _, tc := range []struct{ method, path string }{
		{"GET", "/api/tasks/" + itoa(task.ID)},
		{"PUT", "/api/tasks/" + itoa(task.ID)},
		{"PATCH", "/api/tasks/" + itoa(task.ID) + "/toggle"},
		{"DELETE", "/api/tasks/" + itoa(task.ID)},
	} {
		body := map[string]string{}
		rr := env.do(t, tc.method, tc.path, body, bobCookies)
		if rr.Code != http.StatusForbidden {
			t.Errorf("%s %s: got %d want %d", tc.method, tc.path, rr.Code, http.StatusForbidden)
		}
		if strings.Contains(rr.Body.String(), "Alice") {
			t.Errorf("%s %s leaked the task body", tc.method, tc.path)
		}
	}
}

func TestTaskValidationOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, cookies := env.register(t, "a@x.com", "Secure123!")

	rr := env.do(t, "POST", "/api/tasks", map[string]string{"title": "t", "priority": "urgent"}, cookies)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad priority returned %d want %d", rr.Code, http.StatusBadRequest)
	}

	rr = env.do(t, "POST", "/api/tasks", map[string]string{"title": "t", "priority": "LOW"}, cookies)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create returned %d", rr.Code)
	}
	if decodeTask(t, rr).Priority != "low" {
		t.Error("Expected priority normalized to 'low'")
	}

	rr = env.do(t, "POST", "/api/tasks", map[string]string{"title": strings.Repeat("a", 201)}, cookies)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("201-char title returned %d want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestTaskUnknownAndMalformedID(t *testing.T) {
	env := newTestEnv(t)
	_, cookies := env.register(t, "a@x.com", "Secure123!")

	rr := env.do(t, "GET", "/api/tasks/9999", nil, cookies)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown id returned %d want %d", rr.Code, http.StatusNotFound)
	}

	// Non-numeric ids never match the route.
	rr = env.do(t, "GET", "/api/tasks/abc", nil, cookies)
	if rr.Code != http.StatusNotFound {
		t.Errorf("malformed id returned %d want %d", rr.Code, http.StatusNotFound)
	}
}

func itoa(id int) string {
	return strconv.Itoa(id)
}
