package rtqueue

import "testing"

func collect(q *Queue[int]) []int {
	var out []int
	q.Each(func(v int) bool {
		out = append(out, v)
		return true
	})
	return out
}

func TestAppendOrder(t *testing.T) {
	pool := NewPool[int](8)
	q := New(pool)

	for i := 1; i <= 5; i++ {
		if !q.Append(i * 10) {
			t.Fatalf("Append %d failed with free nodes available", i)
		}
	}

	if q.Len() != 5 {
		t.Errorf("Expected length 5, got %d", q.Len())
	}

	got := collect(&q)
	want := []int{10, 20, 30, 40, 50}
	for i, v := range want {
		if got[i] != v {
			t.Errorf("Position %d: expected %d, got %d", i, v, got[i])
		}
	}
}

func TestPoolExhaustion(t *testing.T) {
	pool := NewPool[int](4)
	q := New(pool)

	for i := 0; i < 4; i++ {
		if !q.Append(i) {
			t.Fatalf("Append %d failed before pool exhaustion", i)
		}
	}

	if q.Append(99) {
		t.Error("Append succeeded on an exhausted pool")
	}
	if q.Len() != 4 {
		t.Errorf("Failed append changed length: expected 4, got %d", q.Len())
	}
	if pool.Available() != 0 {
		t.Errorf("Expected 0 available nodes, got %d", pool.Available())
	}
}

func TestClearRecycles(t *testing.T) {
	pool := NewPool[int](4)
	q := New(pool)

	for i := 0; i < 4; i++ {
		q.Append(i)
	}
	q.Clear()

	if !q.Empty() {
		t.Error("Queue not empty after Clear")
	}
	if pool.Available() != 4 {
		t.Errorf("Expected all 4 nodes back in pool, got %d", pool.Available())
	}

	// Recycled nodes must be appendable again.
	for i := 0; i < 4; i++ {
		if !q.Append(i) {
			t.Fatalf("Append %d failed after Clear", i)
		}
	}
}

func TestSpliceAppendTo(t *testing.T) {
	pool := NewPool[int](8)
	src := New(pool)
	dst := New(pool)

	dst.Append(1)
	dst.Append(2)
	src.Append(3)
	src.Append(4)
	src.Append(5)

	src.SpliceAppendTo(&dst)

	if !src.Empty() {
		t.Errorf("Source not empty after splice, length %d", src.Len())
	}
	if dst.Len() != 5 {
		t.Errorf("Expected destination length 5, got %d", dst.Len())
	}

	got := collect(&dst)
	want := []int{1, 2, 3, 4, 5}
	for i, v := range want {
		if got[i] != v {
			t.Errorf("Position %d: expected %d, got %d", i, v, got[i])
		}
	}

	// Splicing moves nodes, it does not free them.
	if pool.Available() != 3 {
		t.Errorf("Expected 3 available nodes, got %d", pool.Available())
	}
}

func TestSpliceEmptyCases(t *testing.T) {
	pool := NewPool[int](4)

	t.Run("empty source is a no-op", func(t *testing.T) {
		src := New(pool)
		dst := New(pool)
		dst.Append(7)
		src.SpliceAppendTo(&dst)
		if dst.Len() != 1 {
			t.Errorf("Expected length 1, got %d", dst.Len())
		}
		dst.Clear()
	})

	t.Run("empty destination adopts source", func(t *testing.T) {
		src := New(pool)
		dst := New(pool)
		src.Append(1)
		src.Append(2)
		src.SpliceAppendTo(&dst)
		got := collect(&dst)
		if len(got) != 2 || got[0] != 1 || got[1] != 2 {
			t.Errorf("Expected [1 2], got %v", got)
		}
		dst.Clear()
	})
}

func TestEachEarlyStop(t *testing.T) {
	pool := NewPool[int](4)
	q := New(pool)
	for i := 0; i < 4; i++ {
		q.Append(i)
	}

	visited := 0
	q.Each(func(v int) bool {
		visited++
		return v < 1
	})
	if visited != 2 {
		t.Errorf("Expected walk to stop after 2 values, got %d", visited)
	}
}

// Cycle nodes through three queues the way a pending/visible/spent rotation
// does and make sure the pool never leaks a node.
func TestRotationKeepsAccounting(t *testing.T) {
	pool := NewPool[int](16)
	pending := New(pool)
	visible := New(pool)
	spent := New(pool)

	next := 0
	for round := 0; round < 50; round++ {
		for i := 0; i < 5; i++ {
			if !pending.Append(next) {
				t.Fatalf("Round %d: pool exhausted with %d available", round, pool.Available())
			}
			next++
		}
		pending.SpliceAppendTo(&visible)
		visible.SpliceAppendTo(&spent)
		spent.Clear()
	}

	if pool.Available() != 16 {
		t.Errorf("Expected full pool after rotation, got %d available", pool.Available())
	}
}

func TestPoolReset(t *testing.T) {
	pool := NewPool[int](4)
	q := New(pool)
	q.Append(1)
	q.Append(2)

	pool.Reset()
	q = New(pool)

	if pool.Available() != 4 {
		t.Errorf("Expected 4 available after Reset, got %d", pool.Available())
	}
	for i := 0; i < 4; i++ {
		if !q.Append(i) {
			t.Fatalf("Append %d failed after Reset", i)
		}
	}
}

func TestMinimumCapacity(t *testing.T) {
	pool := NewPool[int](0)
	if pool.Capacity() != 1 {
		t.Errorf("Expected capacity raised to 1, got %d", pool.Capacity())
	}
}
