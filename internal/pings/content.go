package pings

import (
	"strings"
	"time"
)

// Category drives Telegram routing. Values match the env var suffixes.
type Category string

const (
	CategoryStratOp      Category = "STRATOP"
	CategoryPreping      Category = "PREPING"
	CategoryBreakingNews Category = "BREAKING_NEWS"
	CategoryCorpActivity Category = "CORP_ACTIVITY"
)

// Layout selects which fields a template renders.
type Layout int

const (
	// LayoutFleet renders formup, doctrine, FC, comms and notes.
	LayoutFleet Layout = iota
	// LayoutText renders a single free-text body.
	LayoutText
)

// Embed colours.
const (
	ColorRed   = 0xE74C3C
	ColorBlue  = 0x3498DB
	ColorGreen = 0x2ECC71
)

// CommsNone is the comms choice that hides the comms and room fields.
const CommsNone = "none"

// DefaultFieldValue fills fleet fields the operator left empty.
const DefaultFieldValue = "TBD"

// Template describes one kind of ping. Field presence is driven by
// Layout and Scheduled rather than by per-command code.
type Template struct {
	Command   string
	TitleKey  string // i18n id of the title
	DescKey   string // i18n id of the command description
	TextKey   string // i18n id of the text option description, LayoutText only
	Emoji     string
	Color     int
	Category  Category
	Layout    Layout
	Scheduled bool
	// TelegramEmoji prefixes the Telegram title when set.
	TelegramEmoji bool
}

// Templates lists every ping command in registration order.
var Templates = []Template{
	{
		Command: "stratop", TitleKey: "TitleStratOpForming", DescKey: "CmdStratOpDesc",
		Emoji: "🚨", Color: ColorRed, Category: CategoryStratOp, Layout: LayoutFleet, TelegramEmoji: true,
	},
	{
		Command: "stratop_preping", TitleKey: "TitleStratOpPreping", DescKey: "CmdStratOpPrepingDesc",
		Emoji: "🚨", Color: ColorRed, Category: CategoryStratOp, Layout: LayoutFleet, Scheduled: true, TelegramEmoji: true,
	},
	{
		Command: "preping", TitleKey: "TitlePreping", DescKey: "CmdPrepingDesc",
		Emoji: "🚨", Color: ColorRed, Category: CategoryPreping, Layout: LayoutFleet, Scheduled: true, TelegramEmoji: true,
	},
	{
		Command: "news", TitleKey: "TitleBreakingNews", DescKey: "CmdNewsDesc", TextKey: "OptNewsTextDesc",
		Emoji: "📰", Color: ColorBlue, Category: CategoryBreakingNews, Layout: LayoutText,
	},
	{
		Command: "corp", TitleKey: "TitleCorpActivity", DescKey: "CmdCorpDesc", TextKey: "OptTextDesc",
		Emoji: "📣", Color: ColorGreen, Category: CategoryCorpActivity, Layout: LayoutText,
	},
}

// TemplateByCommand looks up a template by its slash command name.
func TemplateByCommand(command string) (Template, bool) {
	for _, tpl := range Templates {
		if tpl.Command == command {
			return tpl, true
		}
	}
	return Template{}, false
}

// Content is the per-invocation input of a ping. It is never persisted.
type Content struct {
	Template Template
	Schedule *time.Time // nil for unscheduled templates

	Formup   string
	Doctrine string
	FC       string
	Notes    string
	Comms    string
	Room     string

	Text string // LayoutText body
}

// Normalize trims inputs and applies defaults.
func (c Content) Normalize() Content {
	c.Formup = defaultIfBlank(c.Formup)
	c.Doctrine = defaultIfBlank(c.Doctrine)
	c.FC = defaultIfBlank(c.FC)
	c.Notes = strings.TrimSpace(c.Notes)
	c.Room = strings.TrimSpace(c.Room)
	c.Text = strings.TrimSpace(c.Text)
	c.Comms = strings.TrimSpace(c.Comms)
	if c.Comms == "" {
		c.Comms = CommsNone
	}
	return c
}

// HasComms reports whether the comms block should be rendered.
func (c Content) HasComms() bool {
	return c.Comms != "" && !strings.EqualFold(c.Comms, CommsNone)
}

func defaultIfBlank(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return DefaultFieldValue
	}
	return s
}
