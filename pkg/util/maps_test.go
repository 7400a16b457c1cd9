package util

import (
	"slices"
	"testing"
)

func TestSortedKeys(t *testing.T) {
	m := map[string]int{"b": 2, "a": 1, "c": 3}
	got := SortedKeys(m)
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("SortedKeys() = %v", got)
	}

	if got := SortedKeys(map[string]int{}); len(got) != 0 {
		t.Errorf("SortedKeys(empty) = %v, want empty", got)
	}
}

func TestSortedUnique(t *testing.T) {
	in := []string{"main.c", "lib/a.c", "main.c", "b.c"}
	got := SortedUnique(in)
	if !slices.Equal(got, []string{"b.c", "lib/a.c", "main.c"}) {
		t.Errorf("SortedUnique() = %v", got)
	}
	if in[0] != "main.c" {
		t.Error("SortedUnique should not modify its input")
	}
}
