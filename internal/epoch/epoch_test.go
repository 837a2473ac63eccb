package epoch_test

import (
	"testing"

	"go.pageloc/internal/epoch"
)

func TestDeferWaitsForEarlierGuards(t *testing.T) {
	c := epoch.NewCollector()

	reader := c.Pin()

	writer := c.Pin()
	destroyed := false
	writer.Defer(func() { destroyed = true })
	writer.Release()

	if destroyed {
		t.Fatal("destructor ran while an earlier guard was still pinned")
	}

	reader.Release()
	if !destroyed {
		t.Fatal("destructor did not run after every guard released")
	}
}

func TestLaterPinsDoNotBlockReclamation(t *testing.T) {
	c := epoch.NewCollector()

	writer := c.Pin()
	destroyed := false
	writer.Defer(func() { destroyed = true })

	// pinned after the retirement, cannot have observed the old value
	late := c.Pin()
	writer.Release()

	if !destroyed {
		t.Fatal("a later pin held back reclamation")
	}
	late.Release()
}

func TestDeferOrderPreserved(t *testing.T) {
	c := epoch.NewCollector()

	var order []int
	g := c.Pin()
	g.Defer(func() { order = append(order, 1) })
	g.Defer(func() { order = append(order, 2) })
	g.Defer(func() { order = append(order, 3) })
	g.Release()

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("destructors ran as %v", order)
	}
}

func TestGuardMisuse(t *testing.T) {
	c := epoch.NewCollector()

	g := c.Pin()
	g.Release()

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("double release did not panic")
			}
		}()
		g.Release()
	}()

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("Defer on a released guard did not panic")
			}
		}()
		g.Defer(func() {})
	}()
}
