package window

import (
	"testing"

	"github.com/gogpu/epicycle"
)

func TestEventQueueCollapsesResizes(t *testing.T) {
	var q eventQueue
	q.resize(100, 100)
	q.resize(200, 150)
	q.close()
	q.resize(0, 0)

	want := []epicycle.Event{
		{Kind: epicycle.EventResize, Width: 200, Height: 150},
		{Kind: epicycle.EventClose},
		{Kind: epicycle.EventResize},
	}
	got := q.drain()
	if len(got) != len(want) {
		t.Fatalf("drain() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if rest := q.drain(); len(rest) != 0 {
		t.Errorf("second drain() = %+v, want empty", rest)
	}
}

func TestEventQueueClosesOnce(t *testing.T) {
	var q eventQueue
	q.close()
	q.close()
	if got := q.drain(); len(got) != 1 {
		t.Errorf("drain() = %+v, want one close", got)
	}
	q.close()
	if got := q.drain(); len(got) != 0 {
		t.Errorf("close after drain queued %+v", got)
	}
}

func TestScaleFactor(t *testing.T) {
	tests := []struct {
		fb, win int
		want    float64
	}{
		{800, 800, 1},
		{1600, 800, 2},
		{1200, 800, 1.5},
		{0, 800, 1},
		{800, 0, 1},
	}
	for _, tt := range tests {
		if got := scaleFactor(tt.fb, tt.win); got != tt.want {
			t.Errorf("scaleFactor(%d, %d) = %v, want %v", tt.fb, tt.win, got, tt.want)
		}
	}
}
