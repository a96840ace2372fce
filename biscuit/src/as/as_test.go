package as

import (
	"testing"

	"mem"
)

func mkSpace() *Space {
	return &Space{
		VBaseText:  0x1000,
		NPagesText: 1,
		VBaseData:  0x2000,
		NPagesData: 1,
	}
}

func TestClassifyText(t *testing.T) {
	s := mkSpace()
	if got := Classify(s, 0x1500); got != SegText {
		t.Fatalf("Classify(0x1500) = %v, want SegText", got)
	}
}

func TestClassifyData(t *testing.T) {
	s := mkSpace()
	if got := Classify(s, 0x2500); got != SegData {
		t.Fatalf("Classify(0x2500) = %v, want SegData", got)
	}
}

func TestClassifyStack(t *testing.T) {
	s := mkSpace()
	if got := Classify(s, UserStack-1); got != SegStack {
		t.Fatalf("Classify(UserStack-1) = %v, want SegStack", got)
	}
}

func TestClassifyNoneAboveUserStack(t *testing.T) {
	s := mkSpace()
	if got := Classify(s, UserStack+mem.Va_t(mem.PGSIZE)); got != SegNone {
		t.Fatalf("Classify(above UserStack) = %v, want SegNone", got)
	}
}

func TestClassifyNoneBetweenTextAndData(t *testing.T) {
	s := &Space{VBaseText: 0x1000, NPagesText: 1, VBaseData: 0x5000, NPagesData: 1}
	if got := Classify(s, 0x3000); got != SegNone {
		t.Fatalf("Classify(gap) = %v, want SegNone", got)
	}
}

func TestValidRejectsEmptyText(t *testing.T) {
	s := &Space{NPagesText: 0}
	if s.Valid() {
		t.Fatal("a space with no text pages must be invalid")
	}
}

func TestValidRejectsOverlappingData(t *testing.T) {
	s := &Space{VBaseText: 0x1000, NPagesText: 1, VBaseData: 0x1000, NPagesData: 1}
	if s.Valid() {
		t.Fatal("data segment starting inside text must be invalid")
	}
}

func TestValidAcceptsWellFormedSpace(t *testing.T) {
	if !mkSpace().Valid() {
		t.Fatal("mkSpace() should be a well formed address space")
	}
}

func TestElfHandleRefcounting(t *testing.T) {
	h := NewElfHandle(nil)
	h.Incref()
	if h.Decref() {
		t.Fatal("Decref after one Incref must not reach zero yet")
	}
	if !h.Decref() {
		t.Fatal("final Decref should report the refcount reached zero")
	}
}

func TestElfHandleDoubleDecrefPanics(t *testing.T) {
	h := NewElfHandle(nil)
	h.Decref()
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic on refcount underflow")
		}
	}()
	h.Decref()
}

func TestTableRegisterAndGet(t *testing.T) {
	tbl := NewTable()
	s := mkSpace()
	tbl.Register(1, s)

	got, ok := tbl.Get(1)
	if !ok || got != s {
		t.Fatal("Get should return the registered provider")
	}

	tbl.Unregister(1)
	if _, ok := tbl.Get(1); ok {
		t.Fatal("Get should miss after Unregister")
	}
}
