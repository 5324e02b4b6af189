package mxgraph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/tabledraw/pkg/config"
	"github.com/matzehuels/tabledraw/pkg/layout"
	"github.com/matzehuels/tabledraw/pkg/table"
)

func fiveItems(t *testing.T) *layout.Layout {
	t.Helper()
	g := table.New()
	for i := 0; i < 5; i++ {
		require.NoError(t, g.Add("A", "S", table.Item{Name: fmt.Sprintf("item-%d", i)}))
	}
	s, _ := g.Lookup("A")
	l, err := layout.Compute(config.Default(), s)
	require.NoError(t, err)
	return l
}

func TestAssembleOrder(t *testing.T) {
	m := Assemble(fiveItems(t), config.Default().Page, NewSeededIDs("order"))

	require.Len(t, m.Cells, 2+7+6)
	assert.Equal(t, "A", m.Name)
	assert.Equal(t, Cell{ID: RootID}, m.Cells[0])
	assert.Equal(t, Cell{ID: LayerID, Parent: RootID}, m.Cells[1])

	kinds := make([]string, 0, len(m.Cells)-2)
	for _, c := range m.Cells[2:] {
		switch {
		case c.Vertex:
			kinds = append(kinds, "v:"+c.Value)
		case c.Edge:
			kinds = append(kinds, "e")
		}
	}
	assert.Equal(t, []string{
		"v:A",
		"v:S", "e",
		"v:item-0", "e",
		"v:item-1", "e",
		"v:item-2", "e",
		"v:item-3", "e",
		"v:item-4", "e",
	}, kinds)

	vertices, edges := m.Counts()
	assert.Equal(t, 7, vertices)
	assert.Equal(t, 6, edges)
}

func TestAssembleReferentialIntegrity(t *testing.T) {
	m := Assemble(fiveItems(t), config.Default().Page, RandomIDs{})
	require.NoError(t, m.Validate())

	byID := make(map[string]Cell)
	for _, c := range m.Cells {
		byID[c.ID] = c
	}
	for _, c := range m.Cells {
		if !c.Edge {
			continue
		}
		src, dst := byID[c.Source], byID[c.Target]
		assert.True(t, src.Vertex, "edge %s source is not a vertex", c.ID)
		assert.True(t, dst.Vertex, "edge %s target is not a vertex", c.ID)
		assert.True(t, c.Geometry.Relative)
		assert.Len(t, c.Geometry.Points, 2)
	}
}

func TestAssembleEdgeGeometryIsCopied(t *testing.T) {
	l := fiveItems(t)
	m := Assemble(l, config.Default().Page, RandomIDs{})

	l.Edges[0].Points[0].X = -1
	assert.NotEqual(t, -1.0, m.Cells[4].Geometry.Points[0].X)
}

func TestSeededIDs(t *testing.T) {
	a, b := NewSeededIDs("x"), NewSeededIDs("x")
	other := NewSeededIDs("y")

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := a.NewID()
		assert.Equal(t, id, b.NewID(), "same seed must give same sequence")
		assert.NotEqual(t, id, other.NewID(), "different seeds must differ")
		assert.False(t, seen[id], "id %s reused", id)
		seen[id] = true
	}
	assert.Equal(t, "x", a.Seed())
}

func TestRandomIDsUnique(t *testing.T) {
	var ids RandomIDs
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := ids.NewID()
		require.False(t, seen[id])
		seen[id] = true
	}
}

func TestValidate(t *testing.T) {
	base := func() *Model {
		return &Model{Name: "p", Cells: []Cell{
			{ID: RootID},
			{ID: LayerID, Parent: RootID},
			{ID: "a", Parent: LayerID, Vertex: true, Geometry: &Geometry{}},
			{ID: "b", Parent: LayerID, Vertex: true, Geometry: &Geometry{}},
			{ID: "e", Parent: LayerID, Edge: true, Source: "a", Target: "b", Geometry: &Geometry{Relative: true}},
		}}
	}

	tests := []struct {
		name    string
		mutate  func(m *Model)
		wantErr string
	}{
		{"valid", func(*Model) {}, ""},
		{"duplicate id", func(m *Model) { m.Cells[3].ID = "a" }, "duplicate cell id"},
		{"dangling target", func(m *Model) { m.Cells[4].Target = "zz" }, `missing cell "zz"`},
		{"dangling parent", func(m *Model) { m.Cells[2].Parent = "9" }, `missing cell "9"`},
		{"unconnected edge", func(m *Model) { m.Cells[4].Source = "" }, "not connected"},
		{"empty id", func(m *Model) { m.Cells[2].ID = "" }, "without id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := base()
			tt.mutate(m)
			err := m.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
