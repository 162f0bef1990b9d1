package game

import "testing"

func TestHolderInsertionOrder(t *testing.T) {
	h := NewHolder[int]()

	a, b, c := 1, 2, 3
	ida := h.Insert(&a)
	idb := h.Insert(&b)
	idc := h.Insert(&c)

	if ida == 0 || ida == idb || idb == idc {
		t.Fatal("ids must be fresh and non-zero")
	}

	ids := h.IDs()
	if len(ids) != 3 || ids[0] != ida || ids[1] != idb || ids[2] != idc {
		t.Fatalf("expected insertion order [%d %d %d], got %v", ida, idb, idc, ids)
	}

	h.Remove(idb)
	ids = h.IDs()
	if len(ids) != 2 || ids[0] != ida || ids[1] != idc {
		t.Fatalf("expected [%d %d] after removal, got %v", ida, idc, ids)
	}

	// Keys are never reused
	d := 4
	idd := h.Insert(&d)
	if idd == idb {
		t.Error("removed key was reused")
	}
}

func TestHolderAccess(t *testing.T) {
	h := NewHolder[string]()
	s := "hello"
	id := h.Insert(&s)

	if !h.Contains(id) {
		t.Error("Contains should find the inserted id")
	}
	if h.Contains(0) {
		t.Error("id 0 is never handed out")
	}
	if val, ok := h.Get(id); !ok || *val != "hello" {
		t.Error("Get should return the inserted value")
	}
	if h.Len() != 1 {
		t.Errorf("expected length 1, got %d", h.Len())
	}

	if removed, ok := h.Remove(id); !ok || *removed != "hello" {
		t.Error("Remove should return the value")
	}
	if _, ok := h.Remove(id); ok {
		t.Error("double remove should fail")
	}

	visited := 0
	h.Each(func(int, *string) { visited++ })
	if visited != 0 {
		t.Error("Each visited removed entries")
	}
}
