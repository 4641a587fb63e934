package com

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

type testClient struct {
	id int
	c  int32
}

func (t *testClient) change(n int) { atomic.AddInt32(&t.c, int32(n)) }

func TestPointerValue(t *testing.T) {
	m := NewMap[string, *testClient]()
	c := testClient{id: 1}
	m.Put("1", &c)
	c.change(100)
	fc, err := m.Find("1")
	if err != nil {
		t.Fatal(err)
	}
	if c.c != fc.c {
		t.Errorf("not expected change, o: %v != %v", c.c, fc.c)
	}
}

func TestFindEmptyKey(t *testing.T) {
	m := NewMap[string, int]()
	if _, err := m.Find(""); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPopRemoves(t *testing.T) {
	m := NewMap[string, int]()
	m.Put("k", 42)
	v, err := m.Pop("k")
	if err != nil || v != 42 {
		t.Errorf("pop = %v, %v", v, err)
	}
	if m.Has("k") {
		t.Error("key should be gone after pop")
	}
	if _, err = m.Pop("k"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := NewMap[string, int]()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k := fmt.Sprintf("%v", i)
			m.Put(k, i)
			_, _ = m.Find(k)
			m.RemoveByKey(k)
		}(i)
	}
	wg.Wait()
	if !m.IsEmpty() {
		t.Error("map should be empty")
	}
}
