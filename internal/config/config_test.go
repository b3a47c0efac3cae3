package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAllShippedAssets(t *testing.T) {
	b, err := LoadAll("../../assets")
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Arena, b.Arena)
	assert.Equal(t, def.Units, b.Units)
	assert.Equal(t, def.Match, b.Match)

	b.Battle.Note = ""
	assert.Equal(t, def.Battle, b.Battle)
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func writeAssets(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"battle.yaml", "units.yaml", "arena.yaml", "match.yaml"} {
		body, ok := files[name]
		if !ok {
			body = "{}\n"
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestLoadAllKeepsDefaultsForMissingFields(t *testing.T) {
	dir := writeAssets(t, map[string]string{
		"battle.yaml": "tick_rate: 10\n",
		"match.yaml":  "rounds: 5\n",
	})
	b, err := LoadAll(dir)
	require.NoError(t, err)
	assert.Equal(t, 10, b.Battle.TickRate)
	assert.Equal(t, DefaultBattle().LeashRange, b.Battle.LeashRange)
	assert.Equal(t, 5, b.Match.Rounds)
	assert.Len(t, b.Arena.Lanes, 3)
}

func TestLoadAllErrors(t *testing.T) {
	_, err := LoadAll(t.TempDir())
	assert.Error(t, err, "missing files")

	dir := writeAssets(t, map[string]string{"units.yaml": "units: [\n"})
	_, err = LoadAll(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "units.yaml")

	dir = writeAssets(t, map[string]string{"match.yaml": "rounds: 0\n"})
	_, err = LoadAll(dir)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Bundle)
	}{
		{"tick rate", func(b *Bundle) { b.Battle.TickRate = 0 }},
		{"aggro order", func(b *Bundle) { b.Battle.StructureAggroRange = 1 }},
		{"melee", func(b *Bundle) { b.Battle.StructureMeleeRange = 0.5 }},
		{"empty unit id", func(b *Bundle) { b.Units.Units[0].ID = "" }},
		{"duplicate unit", func(b *Bundle) { b.Units.Units[1].ID = b.Units.Units[0].ID }},
		{"unit hp", func(b *Bundle) { b.Units.Units[0].MaxHP = 0 }},
		{"no lanes", func(b *Bundle) { b.Arena.Lanes = nil }},
		{"short lane", func(b *Bundle) { b.Arena.Lanes[0].Waypoints = b.Arena.Lanes[0].Waypoints[:1] }},
		{"lane width", func(b *Bundle) { b.Arena.Lanes[1].HalfWidth = 0 }},
		{"no slots", func(b *Bundle) { b.Arena.Lanes[2].SlotsP2 = nil }},
		{"bad team", func(b *Bundle) { b.Arena.Structures[1].Team = "p3" }},
		{"bad kind", func(b *Bundle) { b.Arena.Structures[1].Kind = "wall" }},
		{"tower lane", func(b *Bundle) { b.Arena.Structures[1].Lane = "middle" }},
		{"structure hp", func(b *Bundle) { b.Arena.Structures[2].MaxHP = -1 }},
		{"second throne", func(b *Bundle) { b.Arena.Structures[1].Kind = "throne" }},
		{"rounds", func(b *Bundle) { b.Match.Rounds = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Default()
			tt.mut(b)
			assert.ErrorIs(t, b.Validate(), ErrInvalid)
		})
	}
}

func TestTicks(t *testing.T) {
	c := DefaultBattle()
	assert.Equal(t, 200, c.Ticks(10))
	assert.Equal(t, 3, c.Ticks(0.14))
	assert.Zero(t, c.Ticks(0))
	assert.Zero(t, c.Ticks(-1))
	c.TickRate = 0
	assert.Zero(t, c.Ticks(5))
}

func TestLaneIndex(t *testing.T) {
	a := DefaultArena()
	assert.Equal(t, 1, a.LaneIndex("center"))
	assert.Equal(t, -1, a.LaneIndex("middle"))
}
