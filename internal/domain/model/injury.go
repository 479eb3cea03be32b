package model

import "strings"

// InjuryReport is one entry of a team's injury list.
type InjuryReport struct {
	Player      string `json:"player"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

// Out reports whether the status marks the player as fully out.
func (r InjuryReport) Out() bool {
	return strings.EqualFold(strings.TrimSpace(r.Status), "out")
}

// InjuryState maps team codes to their current injury lists.
type InjuryState map[string][]InjuryReport
