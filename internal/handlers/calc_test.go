package handlers

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"chromastudio/internal/calc"
)

func targets(st calc.State) []float64 {
	out := make([]float64, len(st.Targets))
	for i, v := range st.Targets {
		if v != nil {
			out[i] = *v
		}
	}
	return out
}

func TestCalcResourceScaling(t *testing.T) {
	db := withTestDatabase(t)
	withTestStudio(t)
	seedColor(t, db, "CS-001", "钛白 5g 群青 3滴 赭石 15g")

	w := doJSON(t, CalcResource, http.MethodGet, "/app/api/calc/CS-001", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	initial := decodeBody[calcResponse](t, w)
	if !initial.Usable || len(initial.State.Ingredients) != 3 || initial.Applied != nil {
		t.Fatalf("unexpected initial state: %+v", initial)
	}

	w = doJSON(t, CalcResource, http.MethodPost, "/app/api/calc/CS-001/target", map[string]any{"row": 0, "value": "10"})
	scaled := decodeBody[calcResponse](t, w)
	if scaled.Applied == nil || !*scaled.Applied {
		t.Fatalf("expected target to apply, got %+v", scaled)
	}
	if diff := cmp.Diff([]float64{10, 6, 30}, targets(scaled.State)); diff != "" {
		t.Fatalf("targets mismatch (-want +got):\n%s", diff)
	}

	w = doJSON(t, CalcResource, http.MethodPost, "/app/api/calc/CS-001/group-total", map[string]any{"unit": "g", "value": 40})
	grouped := decodeBody[calcResponse](t, w)
	if diff := cmp.Diff([]float64{10, 6, 30}, targets(grouped.State)); diff != "" {
		t.Fatalf("group total mismatch (-want +got):\n%s", diff)
	}

	w = doJSON(t, CalcResource, http.MethodPost, "/app/api/calc/CS-001/factor", map[string]any{"factor": 3})
	factored := decodeBody[calcResponse](t, w)
	if diff := cmp.Diff([]float64{15, 9, 45}, targets(factored.State)); diff != "" {
		t.Fatalf("factor mismatch (-want +got):\n%s", diff)
	}

	w = doJSON(t, CalcResource, http.MethodPost, "/app/api/calc/CS-001/delivered", map[string]any{"row": 0, "value": 20})
	delivered := decodeBody[calcResponse](t, w)
	if len(delivered.Remainders) != 3 || !delivered.Remainders[0].Rebalanced {
		t.Fatalf("expected over-delivery to rebalance the g group, got %+v", delivered.Remainders)
	}
	if delivered.Remainders[1].Rebalanced {
		t.Fatalf("expected 滴 group to be unaffected, got %+v", delivered.Remainders[1])
	}

	w = doJSON(t, CalcResource, http.MethodPost, "/app/api/calc/CS-001/clear", nil)
	cleared := decodeBody[calcResponse](t, w)
	if cleared.State.ScaleFactor != nil || cleared.State.Delivered[0] != nil {
		t.Fatalf("expected clear to reset numbers, got %+v", cleared.State)
	}
}

func TestCalcResourceRejections(t *testing.T) {
	db := withTestDatabase(t)
	withTestStudio(t)
	seedColor(t, db, "CS-002", "钛白 5g 群青 3滴")

	tests := []struct {
		name    string
		action  string
		payload map[string]any
		reason  error
	}{
		{name: "row out of range", action: "target", payload: map[string]any{"row": 9, "value": "1"}, reason: calc.ErrRowOutOfRange},
		{name: "not a number", action: "target", payload: map[string]any{"row": 0, "value": "abc"}, reason: calc.ErrInvalidNumber},
		{name: "too large", action: "delivered", payload: map[string]any{"row": 0, "value": "1e7"}, reason: calc.ErrInvalidNumber},
		{name: "negative factor", action: "factor", payload: map[string]any{"factor": -2}, reason: calc.ErrInvalidFactor},
		{name: "unknown unit", action: "group-total", payload: map[string]any{"unit": "kg", "value": "10"}, reason: calc.ErrUnknownUnitGroup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, CalcResource, http.MethodPost, "/app/api/calc/CS-002/"+tt.action, tt.payload)
			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}
			resp := decodeBody[calcResponse](t, w)
			if resp.Applied == nil || *resp.Applied {
				t.Fatalf("expected mutation to be rejected, got %+v", resp)
			}
			if resp.Reason != tt.reason.Error() {
				t.Fatalf("reason = %q, want %q", resp.Reason, tt.reason.Error())
			}
			if resp.State.ScaleFactor != nil {
				t.Fatalf("expected state to stay untouched, got factor %v", *resp.State.ScaleFactor)
			}
		})
	}
}

func TestCalcResourceRouting(t *testing.T) {
	db := withTestDatabase(t)
	withTestStudio(t)
	seedColor(t, db, "CS-003", "钛白 5g")

	if w := doJSON(t, CalcResource, http.MethodGet, "/app/api/calc/NOPE", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected unknown code to 404, got %d", w.Code)
	}
	if w := doJSON(t, CalcResource, http.MethodPost, "/app/api/calc/CS-003/explode", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected unknown action to 404, got %d", w.Code)
	}
	if w := doJSON(t, CalcResource, http.MethodGet, "/app/api/calc/CS-003/clear", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected GET on action to 405, got %d", w.Code)
	}
	if w := doJSON(t, CalcResource, http.MethodPost, "/app/api/calc/CS-003/target", map[string]any{"row": 0, "value": true}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected bad value type to 400, got %d", w.Code)
	}
}

func TestCalcResourceWithoutStore(t *testing.T) {
	withTestDatabase(t)
	original := calcStore
	calcStore = nil
	t.Cleanup(func() { calcStore = original })

	if w := doJSON(t, CalcResource, http.MethodGet, "/app/api/calc/CS-001", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}
}
