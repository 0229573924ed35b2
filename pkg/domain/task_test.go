package domain

import (
	"encoding/json"
	"testing"
)

func TestTaskStatusNextCycles(t *testing.T) {
	tests := []struct {
		in   TaskStatus
		want TaskStatus
	}{
		{StatusToDo, StatusInProgress},
		{StatusInProgress, StatusDone},
		{StatusDone, StatusToDo},
		{TaskStatus("Blocked"), StatusToDo},
	}
	for _, tc := range tests {
		if got := tc.in.Next(); got != tc.want {
			t.Errorf("%q.Next() = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseTaskStatus(t *testing.T) {
	tests := []struct {
		in     string
		want   TaskStatus
		wantOK bool
	}{
		{"todo", StatusToDo, true},
		{"To Do", StatusToDo, true},
		{"in-progress", StatusInProgress, true},
		{"IN_PROGRESS", StatusInProgress, true},
		{"done", StatusDone, true},
		{"later", "", false},
	}
	for _, tc := range tests {
		got, ok := ParseTaskStatus(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("ParseTaskStatus(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestTaskDecodesMongoShape(t *testing.T) {
	body := `{"_id":"t1","title":"ship","status":"Done","project":"p1"}`
	var task Task
	if err := json.Unmarshal([]byte(body), &task); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if task.ID != "t1" {
		t.Errorf("ID = %q, want t1", task.ID)
	}
	if task.ProjectID != "p1" {
		t.Errorf("ProjectID = %q, want p1", task.ProjectID)
	}
	if task.Status != StatusDone {
		t.Errorf("Status = %q, want Done", task.Status)
	}
}

func TestUserDecodesEitherID(t *testing.T) {
	var a, b User
	if err := json.Unmarshal([]byte(`{"id":"1","email":"a@b.com"}`), &a); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`{"_id":"2","email":"c@d.com","username":"cd"}`), &b); err != nil {
		t.Fatal(err)
	}
	if a.ID != "1" || b.ID != "2" {
		t.Errorf("IDs = %q, %q, want 1, 2", a.ID, b.ID)
	}
	if a.DisplayName() != "a@b.com" || b.DisplayName() != "cd" {
		t.Errorf("DisplayName = %q, %q", a.DisplayName(), b.DisplayName())
	}
}

func TestThemeToggle(t *testing.T) {
	if ParseTheme("bogus") != ThemeLight {
		t.Error("unknown theme should fall back to light")
	}
	if ThemeLight.Toggle() != ThemeDark || ThemeDark.Toggle() != ThemeLight {
		t.Error("Toggle should flip light and dark")
	}
}
