package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pefman/void-duel/internal/engine"
	"github.com/pefman/void-duel/internal/game"
)

func TestDefault(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())

	player, opps := s.Units()
	assert.Equal(t, engine.Cell{X: 5, Y: 5}, player.Pos)
	assert.True(t, player.IsPlayerControlled)
	require.Len(t, opps, 2)
	assert.Equal(t, engine.Cell{X: 2, Y: 2}, opps[0].Pos)
	assert.Equal(t, engine.Cell{X: 8, Y: 2}, opps[1].Pos)
	assert.Equal(t, game.OpponentSide, opps[1].Side)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ambush.yaml")
	doc := `
name: ambush
grid: {width: 10, height: 10}
player: {x: 1, y: 1, hull: light}
opponents:
  - {x: 8, y: 8, hull: heavy}
  - {id: scout, x: 0, y: 9}
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ambush", s.Name)
	assert.Equal(t, "player", s.Player.ID)
	assert.Equal(t, "enemy-1", s.Opponents[0].ID)
	assert.Equal(t, "scout", s.Opponents[1].ID)
	assert.Equal(t, "medium", s.Opponents[1].Hull)

	player, opps := s.Units()
	assert.Equal(t, 75.0, player.MaxHull)
	assert.Equal(t, 150.0, opps[0].MaxHull)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read scenario")

	_, err = Parse([]byte("player: [not, a, ship]"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode scenario")

	_, err = Parse([]byte(`
grid: {width: 5, height: 5}
player: {x: 1, y: 1}
opponents:
  - {id: player, x: 9, y: 1, hull: cardboard}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate ship id")
	assert.Contains(t, err.Error(), "unknown hull type")
	assert.Contains(t, err.Error(), "off the grid")

	_, err = Parse([]byte("player: {x: 1, y: 1}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no opponents")
}
