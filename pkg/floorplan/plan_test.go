package floorplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfroyo/brepcore/pkg/engine"
	"github.com/openfroyo/brepcore/pkg/geom"
)

type fakeRegion struct {
	id    string
	walls []string
}

func (r fakeRegion) RegionID() string      { return r.id }
func (r fakeRegion) LinkWallIDs() []string { return r.walls }

func TestPlanWalls(t *testing.T) {
	p := NewPlan("")
	assert.NotEmpty(t, p.ID)
	require.NotNil(t, p.Tags())

	w1 := &Wall{ID: "w1", From: geom.Pt2(0, 0), To: geom.Pt2(3, 4), Height: 2.8}
	w2 := &Wall{ID: "w2", From: geom.Pt2(3, 4), To: geom.Pt2(3, 0), Height: 2.8}
	require.NoError(t, p.AddWall(w1))
	require.NoError(t, p.AddWall(w2))

	err := p.AddWall(&Wall{ID: "w1"})
	assert.True(t, engine.IsMalformed(err))
	assert.True(t, engine.IsMalformed(p.AddWall(&Wall{})))

	got, ok := p.Wall("w1")
	require.True(t, ok)
	assert.InDelta(t, 5.0, got.Length(), 1e-9)
	assert.Equal(t, []*Wall{w1, w2}, p.Walls())

	assert.True(t, p.RemoveEntity("w1"))
	assert.False(t, p.RemoveEntity("w1"))
	_, ok = p.EntityByID("w1")
	assert.False(t, ok)
	assert.Equal(t, []*Wall{w2}, p.Walls())
}

func TestPlanRegions(t *testing.T) {
	p := NewPlan("plan-1")

	require.NoError(t, p.RegisterRegion(fakeRegion{"r1", []string{"w1", "w2"}}))
	require.NoError(t, p.RegisterRegion(fakeRegion{"r2", []string{"w2"}}))
	assert.True(t, engine.IsMalformed(p.RegisterRegion(fakeRegion{"r1", nil})))

	assert.Len(t, p.Regions(), 2)
	assert.Len(t, p.RegionsOfWall("w2"), 2)
	assert.Len(t, p.RegionsOfWall("w1"), 1)
	assert.Empty(t, p.RegionsOfWall("w9"))
}
