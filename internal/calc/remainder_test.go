package calc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRemaindersWithoutOverspend(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	store.State("C", "钛白 5g 坏 x 群青 3滴")
	store.ApplyScale("C", 0, "10")
	st := store.UpdateDelivered("C", 0, "4").State

	got := Remainders(st)
	want := []Remainder{
		{Index: 0, Unit: "g", Target: floatPtr(10), Delivered: 4, Remaining: floatPtr(6), ExcessRatio: 1},
		{Index: 2, Unit: "滴", Target: floatPtr(6), Delivered: 0, Remaining: floatPtr(6), ExcessRatio: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("remainders mismatch (-want +got):\n%s", diff)
	}
}

func TestRemaindersRebalanceOverspentGroup(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	store.State("C", "a 10g b 20g c 5ml")
	store.ApplyScale("C", 0, "10")
	store.UpdateDelivered("C", 0, "15")
	st := store.UpdateDelivered("C", 1, "20").State

	got := Remainders(st)
	if len(got) != 3 {
		t.Fatalf("expected 3 remainders, got %d", len(got))
	}

	if !got[0].Rebalanced || got[0].ExcessRatio != 1.5 {
		t.Fatalf("row 0 should be rebalanced by 1.5, got %+v", got[0])
	}
	if got[0].RebalancedTarget != 15 || got[0].AdditionalNeeded != 0 {
		t.Fatalf("row 0 rebalance mismatch: %+v", got[0])
	}
	if got[1].RebalancedTarget != 30 || got[1].AdditionalNeeded != 10 {
		t.Fatalf("row 1 should need 10 more, got %+v", got[1])
	}
	if got[0].Remaining != nil || got[1].Remaining != nil {
		t.Fatal("rebalanced rows should not report a plain remainder")
	}

	if got[2].Rebalanced || got[2].Remaining == nil || *got[2].Remaining != 5 {
		t.Fatalf("other unit group should be unaffected, got %+v", got[2])
	}
}

func TestRemaindersWithoutTargets(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	st := store.State("C", "a 10g b 20g")
	for _, rem := range Remainders(st) {
		if rem.Target != nil || rem.Remaining != nil || rem.Rebalanced {
			t.Fatalf("expected empty remainder before scaling, got %+v", rem)
		}
	}
}

func TestGroups(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)
	store.State("C", "a 10g b 3滴 c 20g 坏 x")
	store.ApplyScale("C", 0, "20")
	st := store.UpdateDelivered("C", 2, "50").State

	got := Groups(st)
	want := []Group{
		{Unit: "g", Rows: []int{0, 2}, BaseTotal: 30, TargetTotal: 60, DeliveredTotal: 50, ExcessRatio: 1.25},
		{Unit: "滴", Rows: []int{1}, BaseTotal: 3, TargetTotal: 6, DeliveredTotal: 0, ExcessRatio: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("groups mismatch (-want +got):\n%s", diff)
	}
}
