package handlers

// Action types for the audit log
const (
	ActionPublishPing = "publish_ping"
	ActionReping      = "reping"
	ActionPingStatus  = "ping_status"
)

// Slash command names that are not backed by a ping template.
const (
	CommandReping     = "reping"
	CommandPingStatus = "ping_status"
)

// Option names shared by the slash command definitions and the handlers.
const (
	OptDate     = "date_et"
	OptTime     = "time_et"
	OptFormup   = "formup"
	OptDoctrine = "doctrine"
	OptFC       = "fc"
	OptNotes    = "notes"
	OptComms    = "comms"
	OptRoom     = "room"
	OptText     = "text"
	OptStatus   = "status"
	OptTelegram = "telegram"
)

// CommsChoices are the selectable comms values besides "none".
var CommsChoices = []string{"Mumble CN", "Mumble EU", "Discord"}
