package lru

import (
	"strconv"
	"testing"

	"github.com/unkn0wn-root/rescache/resource"
)

func TestEvictsOldestItem(t *testing.T) {
	s, err := New(Config{ItemsPerResource: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 1; i <= 3; i++ {
		id := strconv.Itoa(i)
		if err := s.SetItem("users", id, resource.Item{"id": id}); err != nil {
			t.Fatalf("SetItem %s: %v", id, err)
		}
	}

	if _, ok, _ := s.Item("users", "1"); ok {
		t.Fatal("oldest entry survived past capacity")
	}
	for _, id := range []string{"2", "3"} {
		if _, ok, _ := s.Item("users", id); !ok {
			t.Fatalf("entry %s evicted too early", id)
		}
	}
}

func TestCapacityIsPerResource(t *testing.T) {
	s, err := New(Config{ItemsPerResource: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_ = s.SetItem("users", "1", resource.Item{"id": "1"})
	_ = s.SetItem("posts", "1", resource.Item{"id": "1"})

	if _, ok, _ := s.Item("users", "1"); !ok {
		t.Fatal("users entry evicted by another resource")
	}
	if _, ok, _ := s.Item("posts", "1"); !ok {
		t.Fatal("posts entry missing")
	}
}

func TestListsEvictIndependently(t *testing.T) {
	s, err := New(Config{ItemsPerResource: 1, ListsPerResource: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_ = s.SetItem("users", "1", resource.Item{"id": "1"})
	_ = s.SetList("users", "page=1", resource.ListResult{Items: []resource.Item{{"id": "1"}}, Total: 1})
	_ = s.SetList("users", "page=2", resource.ListResult{Items: []resource.Item{{"id": "2"}}, Total: 1})

	if _, ok, _ := s.List("users", "page=1"); ok {
		t.Fatal("list survived past list capacity")
	}
	if _, ok, _ := s.Item("users", "1"); !ok {
		t.Fatal("item evicted by list churn")
	}
}

func TestCopiesAtBoundary(t *testing.T) {
	s, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	in := resource.Item{"id": "1", "name": "ada"}
	_ = s.SetItem("users", "1", in)
	in["name"] = "mutated"

	out, _, _ := s.Item("users", "1")
	if out["name"] != "ada" {
		t.Fatalf("aliased write: %v", out)
	}
	out["name"] = "mutated"
	again, _, _ := s.Item("users", "1")
	if again["name"] != "ada" {
		t.Fatalf("aliased read: %v", again)
	}
}

func TestResetScoped(t *testing.T) {
	s, err := New(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = s.SetItem("users", "1", resource.Item{"id": "1"})
	_ = s.SetItem("posts", "1", resource.Item{"id": "1"})

	if err := s.Reset("users"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, ok, _ := s.Item("users", "1"); ok {
		t.Fatal("users survived scoped reset")
	}
	if _, ok, _ := s.Item("posts", "1"); !ok {
		t.Fatal("posts cleared by scoped reset")
	}

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset all: %v", err)
	}
	if _, ok, _ := s.Item("posts", "1"); ok {
		t.Fatal("posts survived full reset")
	}
}

func TestRejectsNegativeCapacity(t *testing.T) {
	if _, err := New(Config{ItemsPerResource: -1}); err == nil {
		t.Fatal("expected config error")
	}
}
