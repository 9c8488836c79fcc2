package stats

import (
	"context"
	"sync"
	"time"
)

// Memory keeps everything in process. Contents are lost on restart.
type Memory struct {
	mu       sync.Mutex
	matches  []MatchRecord
	dailyMax map[string]Attack
}

func NewMemory() *Memory {
	return &Memory{dailyMax: make(map[string]Attack)}
}

func (m *Memory) RecordMatch(_ context.Context, rec MatchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches = append(m.matches, rec)
	return nil
}

func (m *Memory) RecordAttack(_ context.Context, a Attack) error {
	key := DayKey(a.At)
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.dailyMax[key]; ok && !beats(a, cur) {
		return nil
	}
	m.dailyMax[key] = a
	return nil
}

func (m *Memory) DailyTop(_ context.Context, day time.Time) (Attack, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.dailyMax[DayKey(day)]
	return a, ok, nil
}

func (m *Memory) Recent(_ context.Context, limit int) ([]MatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > len(m.matches) {
		limit = len(m.matches)
	}
	out := make([]MatchRecord, 0, limit)
	for i := len(m.matches) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.matches[i])
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
