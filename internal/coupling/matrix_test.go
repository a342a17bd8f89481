package coupling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	// Thresholds: structural 3, behavioral 1.5.
	cases := []struct {
		name       string
		structural float64
		behavioral float64
		want       Classification
	}{
		{"high both", 8, 2.0, ClassExplicitModule},
		{"imports without churn", 8, 0.2, ClassStableInterface},
		{"churn without imports", 0, 2.5, ClassHiddenCoupling},
		{"neither", 1, 0.3, ClassUnrelated},
		{"zero weights", 0, 0, ClassUnrelated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(Entry{StructuralWeight: tc.structural, BehavioralWeight: tc.behavioral}, 3, 1.5)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMedianNonZero(t *testing.T) {
	entries := []Entry{
		{StructuralWeight: 0}, {StructuralWeight: 1}, {StructuralWeight: 3}, {StructuralWeight: 10},
	}
	axis := func(e Entry) float64 { return e.StructuralWeight }
	assert.InDelta(t, 3.0, medianNonZero(entries, axis), 1e-9)

	even := []Entry{{StructuralWeight: 2}, {StructuralWeight: 4}}
	assert.InDelta(t, 3.0, medianNonZero(even, axis), 1e-9)

	assert.InDelta(t, 0.0, medianNonZero(nil, axis), 1e-9)
}

func TestFindHiddenCoupling_Sorted(t *testing.T) {
	m := &Matrix{Entries: []Entry{
		{A: "a", B: "b", Class: ClassHiddenCoupling, BehavioralWeight: 1.0},
		{A: "c", B: "d", Class: ClassHiddenCoupling, BehavioralWeight: 3.0},
		{A: "e", B: "f", Class: ClassStableInterface, BehavioralWeight: 9.0},
	}}
	got := FindHiddenCoupling(m)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].A, "heaviest behavioral weight first")
	assert.Equal(t, "a", got[1].A)
}

func TestComponentCouplingProfile(t *testing.T) {
	m := &Matrix{Entries: []Entry{
		{A: "x.ts", B: "y.ts", ComponentA: "auth", ComponentB: "api"},
		{A: "y.ts", B: "z.ts", ComponentA: "api", ComponentB: "web"},
		{A: "p.ts", B: "q.ts", ComponentA: "web", ComponentB: "web"},
	}}
	got := ComponentCouplingProfile(m, "auth")
	require.Len(t, got, 1)
	assert.Equal(t, "x.ts", got[0].A)
}
