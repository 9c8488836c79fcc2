package models

import (
	"encoding/json"

	"github.com/pefman/void-duel/internal/game"
	"github.com/pefman/void-duel/internal/match"
	"github.com/pefman/void-duel/internal/scenario"
	"github.com/pefman/void-duel/internal/stats"
	"github.com/pefman/void-duel/internal/weapons"
)

// ========================= WebSocket =========================

// Message types, in both directions.
const (
	MsgSelect    = "select"
	MsgMove      = "move"
	MsgWeapon    = "weapon"
	MsgFire      = "fire"
	MsgAdvance   = "advance"
	MsgCustomize = "customize"
	MsgState     = "state"
	MsgYou       = "you"
	MsgLog       = "log"
	MsgError     = "error"
)

// WebSocket message structure
type WsMsg struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// ClientIn is a browser message; Data is decoded per Type.
type ClientIn struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ========================= Requests =========================

// NewMatchRequest starts a match. Zero Seed uses the server default and a
// nil Scenario the configured layout.
type NewMatchRequest struct {
	Seed     int64              `json:"seed,omitempty"`
	Scenario *scenario.Scenario `json:"scenario,omitempty"`
}

type SelectRequest struct {
	Unit string `json:"unit"`
}

type MoveRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type WeaponRequest struct {
	Weapon string `json:"weapon"`
}

type FireRequest struct {
	Target string `json:"target"`
}

// ========================= Responses =========================

// ActionResponse answers every player action. Applied is false when the
// action was not valid in the current state.
type ActionResponse struct {
	Applied bool           `json:"applied"`
	State   match.Snapshot `json:"state"`
}

type Catalog struct {
	Weapons []weapons.Weapon                  `json:"weapons"`
	Hulls   map[game.HullClass]game.HullStats `json:"hulls"`
}

type DailyLeaderboard struct {
	Date      string        `json:"date"`
	TopAttack *stats.Attack `json:"top_attack,omitempty"`
}

type Version struct {
	Version string `json:"version"`
	Time    string `json:"time"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}
