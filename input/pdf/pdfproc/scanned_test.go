package pdfproc

import "testing"

func TestGroupContiguousPages(t *testing.T) {
	got := groupContiguousPages([]int{1, 2, 3, 7, 8, 12})
	want := []pageRange{{1, 3}, {7, 8}, {12, 12}}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("range[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestGroupContiguousPagesUnsortedInput(t *testing.T) {
	got := groupContiguousPages([]int{8, 1, 7, 2, 3})
	want := []pageRange{{1, 3}, {7, 8}}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("range[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestGroupContiguousPagesEmpty(t *testing.T) {
	if got := groupContiguousPages(nil); got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestPadWidth(t *testing.T) {
	cases := []struct {
		total int
		want  int
	}{
		{5, 2}, {99, 2}, {100, 3}, {999, 3}, {1000, 4},
	}
	for _, c := range cases {
		if got := padWidth(c.total); got != c.want {
			t.Errorf("padWidth(%d) = %d, want %d", c.total, got, c.want)
		}
	}
}

func TestSplitPageRangesEvenAndRemainder(t *testing.T) {
	ranges := splitPageRanges(10, 3)
	total := 0
	for _, r := range ranges {
		total += r.last - r.first + 1
	}
	if total != 10 {
		t.Errorf("ranges do not cover all pages: %+v", ranges)
	}
	if ranges[0].first != 1 {
		t.Errorf("first range should start at page 1: %+v", ranges)
	}
	if ranges[len(ranges)-1].last != 10 {
		t.Errorf("last range should end at page 10: %+v", ranges)
	}
}
