package stack

import "testing"

func TestEmpty(t *testing.T) {
	s := New[string]()
	if !s.Empty() {
		t.Errorf("a new stack should be empty")
	}

	s.Push("one")
	if s.Empty() {
		t.Errorf("a stack with an item should not be empty")
	}
}

func TestPushPop(t *testing.T) {
	s := New[int]()

	s.Push(1)
	s.Push(2)
	s.Push(3)

	for _, want := range []int{3, 2, 1} {
		got, err := s.Pop()
		if err != nil {
			t.Fatalf("unexpected error popping: %s", err)
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}
}

func TestPopEmpty(t *testing.T) {
	s := New[string]()

	_, err := s.Pop()
	if err == nil {
		t.Errorf("expected an error popping an empty stack")
	}
}

// The stack holds arbitrary value types, not just strings - here a
// struct, which is how the parser uses it to track brace positions.
type point struct{ line, column int }

func TestGenericValueType(t *testing.T) {
	s := New[point]()
	s.Push(point{1, 1})
	s.Push(point{3, 5})

	got, err := s.Pop()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got != (point{3, 5}) {
		t.Fatalf("expected {3 5}, got %+v", got)
	}
}
