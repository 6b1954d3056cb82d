package main

import (
	"math"
	"sort"
)

// Seating geometry. The circle grows with the player count and with the
// deepest reminder-token stack so stacked tokens never crowd the circle
// interior.
const (
	baseSeatRadius  = 220.0
	radiusPerPlayer = 14.0
	radiusPerToken  = 30.0
	seatMargin      = 80.0
)

type Seat struct {
	Index int     `json:"index"`
	Angle float64 `json:"angle"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// seatingAngle places seat i of n on the circle, seat 0 at 12 o'clock and
// the rest clockwise.
func seatingAngle(i, n int) float64 {
	return float64(i)/float64(n)*2*math.Pi - math.Pi/2
}

func seatRadius(playerCount, maxTokenDepth int) float64 {
	return baseSeatRadius + radiusPerPlayer*float64(playerCount) + radiusPerToken*float64(maxTokenDepth)
}

func maxTokenDepth(players []Player) int {
	depth := 0
	for _, p := range players {
		if len(p.ReminderTokens) > depth {
			depth = len(p.ReminderTokens)
		}
	}
	return depth
}

func seatPositions(players []Player) []Seat {
	n := len(players)
	seats := make([]Seat, 0, n)
	if n == 0 {
		return seats
	}
	radius := seatRadius(n, maxTokenDepth(players))
	center := radius + seatMargin
	for i := range players {
		angle := seatingAngle(i, n)
		seats = append(seats, Seat{
			Index: i,
			Angle: angle,
			X:     center + radius*math.Cos(angle),
			Y:     center + radius*math.Sin(angle),
		})
	}
	return seats
}

type Distribution struct {
	Townsfolk int `json:"townsfolk"`
	Outsiders int `json:"outsiders"`
	Minions   int `json:"minions"`
	Demons    int `json:"demons"`
}

// Standard base-ruleset setup counts by player count. Anything above the
// table reuses the 15-player row; below 5 no distribution is defined.
var distributions = map[int]Distribution{
	5:  {3, 0, 1, 1},
	6:  {3, 1, 1, 1},
	7:  {5, 0, 1, 1},
	8:  {5, 1, 1, 1},
	9:  {5, 2, 1, 1},
	10: {7, 0, 2, 1},
	11: {7, 1, 2, 1},
	12: {7, 2, 2, 1},
	13: {9, 0, 3, 1},
	14: {9, 1, 3, 1},
	15: {9, 2, 3, 1},
}

func distributionFor(playerCount int) Distribution {
	if playerCount >= 15 {
		return distributions[15]
	}
	return distributions[playerCount]
}

// ScriptJinx is a jinx entry attributed to exactly one of the pair for
// display.
type ScriptJinx struct {
	Character string `json:"character"`
	Other     string `json:"other"`
	Text      string `json:"text"`
}

// dedupJinxes walks the script in group order and emits each jinx whose
// partner is also in the script exactly once, attached to the
// higher-priority end (demon > minion > outsider > townsfolk) and to the
// first-seen end on ties.
func dedupJinxes(groups ScriptGroups) []ScriptJinx {
	slugs := groups.slugs()
	order := make(map[string]int, len(slugs))
	for i, slug := range slugs {
		order[slug] = i
	}

	var out []ScriptJinx
	seen := make(map[string]bool)
	for _, slug := range slugs {
		c, ok := lookupCharacter(slug)
		if !ok {
			continue
		}
		for _, jinx := range c.Jinxes {
			otherPos, present := order[jinx.Character]
			if !present {
				continue
			}
			key := slug + "|" + jinx.Character
			if otherPos < order[slug] {
				key = jinx.Character + "|" + slug
			}
			if seen[key] {
				continue
			}
			seen[key] = true

			owner, other := slug, jinx.Character
			otherChar, _ := lookupCharacter(jinx.Character)
			if typePriority(otherChar.Type) > typePriority(c.Type) {
				owner, other = jinx.Character, slug
			}
			out = append(out, ScriptJinx{Character: owner, Other: other, Text: jinx.Text})
		}
	}
	return out
}

// availableReminderTokens is the token tray offered while assigning
// reminders: every assigned character's tokens, the ever-present Drunk
// token, the Marionette token whenever the script carries one, and every
// script Outsider's tokens while a Hermit is seated (the Hermit can borrow
// any Outsider ability).
func availableReminderTokens(players []Player, script *Script) []string {
	set := map[string]bool{"Drunk": true}

	hermitAssigned := false
	for _, p := range players {
		if p.Character == "" {
			continue
		}
		if p.Character == "hermit" {
			hermitAssigned = true
		}
		if c, ok := lookupCharacter(p.Character); ok {
			for _, token := range c.Reminders {
				set[token] = true
			}
		}
	}

	if script != nil {
		if script.Groups.contains("marionette") {
			set["Marionette"] = true
		}
		if hermitAssigned {
			for _, slug := range script.Groups.Outsiders {
				if c, ok := lookupCharacter(slug); ok {
					for _, token := range c.Reminders {
						set[token] = true
					}
				}
			}
		}
	}

	return sortedTokenUnion(set)
}

func sortedTokenUnion(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for token := range set {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}

type boardView struct {
	Players        []Player     `json:"players"`
	Seats          []Seat       `json:"seats"`
	Distribution   Distribution `json:"distribution"`
	ReminderTokens []string     `json:"reminderTokens"`
}

func buildBoardView(state GrimoireState, active *Script) boardView {
	return boardView{
		Players:        state.Players,
		Seats:          seatPositions(state.Players),
		Distribution:   distributionFor(len(state.Players)),
		ReminderTokens: availableReminderTokens(state.Players, active),
	}
}
