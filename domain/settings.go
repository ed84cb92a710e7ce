package domain

import "strings"

const SettingsVersion = 1

const (
	DefaultTotalRounds   = 5
	MinTotalRounds       = 3
	MaxTotalRounds       = 10
	DefaultRoundDuration = 90
	DefaultMaxPlayers    = 8
	DefaultPoints        = 100
	DefaultFirstBonus    = 50
)

// RoomSettings is the versioned configuration a room is created with.
type RoomSettings struct {
	Version       int      `json:"version"`
	Name          string   `json:"name"`
	TotalRounds   int      `json:"totalRounds"`
	RoundDuration int      `json:"roundDuration"`
	MaxPlayers    int      `json:"maxPlayers"`
	IsPublic      bool     `json:"isPublic"`
	CustomWords   []string `json:"customWords,omitempty"`
}

func DefaultSettings() RoomSettings {
	return RoomSettings{
		Version:       SettingsVersion,
		TotalRounds:   DefaultTotalRounds,
		RoundDuration: DefaultRoundDuration,
		MaxPlayers:    DefaultMaxPlayers,
		IsPublic:      true,
	}
}

// Normalize fills zero values with defaults, clamps the round count and
// drops blank custom words.
func (s RoomSettings) Normalize() RoomSettings {
	d := DefaultSettings()
	if s.Version == 0 {
		s.Version = d.Version
	}
	if s.TotalRounds == 0 {
		s.TotalRounds = d.TotalRounds
	}
	s.TotalRounds = min(max(s.TotalRounds, MinTotalRounds), MaxTotalRounds)
	if s.RoundDuration <= 0 {
		s.RoundDuration = d.RoundDuration
	}
	if s.MaxPlayers <= 0 {
		s.MaxPlayers = d.MaxPlayers
	}

	words := make([]string, 0, len(s.CustomWords))
	for _, w := range s.CustomWords {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		words = nil
	}
	s.CustomWords = words
	return s
}
