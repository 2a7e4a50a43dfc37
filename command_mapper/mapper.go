package command_mapper

import "strings"

type Action string

const (
	ActionTurnOn  Action = "turn_on"
	ActionTurnOff Action = "turn_off"
)

// Intent is a device-control action derived from filtered text.
type Intent struct {
	Room   string
	Action Action
}

// Domain is the device class commands are dispatched against.
const Domain = "light"

// EntityID templates the room into the fixed device class.
func (i Intent) EntityID() string {
	return Domain + "." + i.Room
}

type roomEntry struct {
	match string
	room  string
}

type actionEntry struct {
	match  string
	action Action
}

// Lookup tables, scanned in declaration order with first-match-wins
// substring semantics. This is deliberately not NLU; extend the tables to
// support more rooms or phrasings. "aus" and "ausschalten" come before the
// turn-on words so that "ausschalten" is never matched by its "an" suffix
// alternatives.
var roomTable = []roomEntry{
	{match: "wohnzimmer", room: "living_room"},
	{match: "schlafzimmer", room: "bedroom"},
	{match: "küche", room: "kitchen"},
	{match: "bad", room: "bathroom"},
	{match: "büro", room: "office"},
	{match: "flur", room: "hallway"},
}

var actionTable = []actionEntry{
	{match: "ausschalten", action: ActionTurnOff},
	{match: "aus", action: ActionTurnOff},
	{match: "einschalten", action: ActionTurnOn},
	{match: "anschalten", action: ActionTurnOn},
	{match: "ein", action: ActionTurnOn},
	{match: "an", action: ActionTurnOn},
}

// Map scans text for a room and an action independently. Both must match for
// a dispatchable intent; otherwise ok is false and nothing happens.
func Map(text string) (Intent, bool) {
	lower := strings.ToLower(text)

	var (
		intent      Intent
		foundRoom   bool
		foundAction bool
	)

	for _, entry := range roomTable {
		if strings.Contains(lower, entry.match) {
			intent.Room = entry.room
			foundRoom = true

			break
		}
	}

	for _, entry := range actionTable {
		if strings.Contains(lower, entry.match) {
			intent.Action = entry.action
			foundAction = true

			break
		}
	}

	if !foundRoom || !foundAction {
		return Intent{}, false
	}

	return intent, true
}
