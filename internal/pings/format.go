package pings

import (
	"fmt"
	"regexp"
	"strings"

	"fleetping-bot/internal/locales"

	"github.com/bwmarrin/discordgo"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

// markdownV2Reserved holds every character Telegram MarkdownV2 requires escaping.
const markdownV2Reserved = "_*[]()~`>#+-=|{}.!\\"

// EscapeMarkdownV2 prefixes every MarkdownV2 reserved character with a backslash.
func EscapeMarkdownV2(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/4)
	for _, r := range s {
		if strings.ContainsRune(markdownV2Reserved, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// UnescapeMarkdownV2 reverses EscapeMarkdownV2.
func UnescapeMarkdownV2(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for _, r := range s {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		if escaped && !strings.ContainsRune(markdownV2Reserved, r) {
			b.WriteByte('\\')
		}
		escaped = false
		b.WriteRune(r)
	}
	if escaped {
		b.WriteByte('\\')
	}
	return b.String()
}

// JumpURL is the permanent link to a Discord message.
func JumpURL(guildID, channelID, messageID string) string {
	if guildID == "" {
		guildID = "@me"
	}
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

// discordTime renders Discord's client-side absolute and relative timestamps.
func discordTime(ts int64) string {
	return fmt.Sprintf("<t:%d:F> • ⏳ <t:%d:R>", ts, ts)
}

// Labels are the localized strings the formatter writes into messages.
type Labels struct {
	Titles map[string]string // keyed by Template.TitleKey

	Schedule       string
	Formup         string
	Doctrine       string
	FC             string
	Comms          string
	Room           string
	Notes          string
	Link           string
	LinkText       string
	TelegramLink   string
	Status         string
	TelegramStatus string

	// Names written under any locale, so blocks from an earlier
	// language setting are still recognized.
	linkNames   []string
	statusNames []string
	tgLinkRe    *regexp.Regexp
	tgStatusRe  *regexp.Regexp
}

// NewLabels resolves labels through the localizer.
func NewLabels(localizer *i18n.Localizer) *Labels {
	msg := func(id string) string { return locales.GetMessage(localizer, id, nil) }

	l := &Labels{
		Titles:         make(map[string]string, len(Templates)),
		Schedule:       msg("LabelSchedule"),
		Formup:         msg("LabelFormup"),
		Doctrine:       msg("LabelDoctrine"),
		FC:             msg("LabelFC"),
		Comms:          msg("LabelComms"),
		Room:           msg("LabelRoom"),
		Notes:          msg("LabelNotes"),
		Link:           msg("LabelLink"),
		LinkText:       msg("LabelLinkText"),
		TelegramLink:   msg("LabelTelegramLink"),
		Status:         msg("LabelStatus"),
		TelegramStatus: msg("LabelTelegramStatus"),
	}
	for _, tpl := range Templates {
		l.Titles[tpl.TitleKey] = msg(tpl.TitleKey)
	}

	l.linkNames = withLabel(locales.Translations("LabelLink"), l.Link)
	l.statusNames = withLabel(locales.Translations("LabelStatus"), l.Status)
	l.tgLinkRe = regexp.MustCompile(`\n*\[(?:` + escapedAlternation(withLabel(locales.Translations("LabelTelegramLink"), l.TelegramLink)) + `)\]\((?:\\.|[^)\\])*\)`)
	l.tgStatusRe = regexp.MustCompile(`(?is)\n*\*(?:` + escapedAlternation(withLabel(locales.Translations("LabelTelegramStatus"), l.TelegramStatus)) + `):\*.*$`)
	return l
}

func withLabel(names []string, label string) []string {
	for _, n := range names {
		if n == label {
			return names
		}
	}
	return append(names, label)
}

func escapedAlternation(labels []string) string {
	quoted := make([]string, 0, len(labels))
	for _, label := range labels {
		quoted = append(quoted, regexp.QuoteMeta(EscapeMarkdownV2(label)))
	}
	return strings.Join(quoted, "|")
}

func containsFold(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// Formatter renders Content for Discord and Telegram.
type Formatter struct {
	labels *Labels
}

// NewFormatter creates a Formatter over the given labels.
func NewFormatter(labels *Labels) *Formatter {
	return &Formatter{labels: labels}
}

// Labels exposes the labels the formatter renders with.
func (f *Formatter) Labels() *Labels {
	return f.labels
}

func (f *Formatter) title(tpl Template) string {
	if t, ok := f.labels.Titles[tpl.TitleKey]; ok {
		return t
	}
	return tpl.TitleKey
}

// Embed builds the Discord rich message. Field order: schedule, formup,
// doctrine, FC, comms, room, notes.
func (f *Formatter) Embed(c Content) *discordgo.MessageEmbed {
	l := f.labels
	embed := &discordgo.MessageEmbed{
		Title: c.Template.Emoji + " " + f.title(c.Template),
		Color: c.Template.Color,
	}

	if c.Template.Layout == LayoutText {
		embed.Description = c.Text
		return embed
	}

	if c.Schedule != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  l.Schedule,
			Value: c.Schedule.UTC().Format(ScheduleLayout) + " ET\n" + discordTime(c.Schedule.Unix()),
		})
	}
	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{Name: l.Formup, Value: c.Formup},
		&discordgo.MessageEmbedField{Name: l.Doctrine, Value: c.Doctrine},
		&discordgo.MessageEmbedField{Name: l.FC, Value: c.FC, Inline: true},
	)
	if c.HasComms() {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: l.Comms, Value: c.Comms, Inline: true})
		if c.Room != "" {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: l.Room, Value: c.Room, Inline: true})
		}
	}
	if c.Notes != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: l.Notes, Value: c.Notes})
	}
	return embed
}

// TelegramText builds the MarkdownV2 body mirrored to Telegram, in the same
// order as Embed. Only user text and labels are escaped; bold markers are not.
func (f *Formatter) TelegramText(c Content) string {
	l := f.labels
	title := EscapeMarkdownV2(f.title(c.Template))
	if c.Template.TelegramEmoji {
		title = c.Template.Emoji + " " + title
	}

	lines := []string{bold(title), ""}
	if c.Template.Layout == LayoutText {
		lines = append(lines, EscapeMarkdownV2(c.Text))
		return strings.Join(lines, "\n")
	}

	if c.Schedule != nil {
		lines = append(lines, bold(EscapeMarkdownV2(l.Schedule)), EscapeMarkdownV2(c.Schedule.UTC().Format(ScheduleLayout))+" ET")
	}
	lines = append(lines,
		bold(EscapeMarkdownV2(l.Formup)), EscapeMarkdownV2(c.Formup),
		bold(EscapeMarkdownV2(l.Doctrine)), EscapeMarkdownV2(c.Doctrine),
		bold(EscapeMarkdownV2(l.FC)), EscapeMarkdownV2(c.FC),
	)
	if c.HasComms() {
		lines = append(lines, bold(EscapeMarkdownV2(l.Comms)), EscapeMarkdownV2(c.Comms))
		if c.Room != "" {
			lines = append(lines, bold(EscapeMarkdownV2(l.Room)), EscapeMarkdownV2(c.Room))
		}
	}
	if c.Notes != "" {
		lines = append(lines, bold(EscapeMarkdownV2(l.Notes)), EscapeMarkdownV2(c.Notes))
	}
	return strings.Join(lines, "\n")
}

func bold(s string) string {
	return "*" + s + "*"
}

// WithSelfLink appends the link field pointing at the message itself.
func (f *Formatter) WithSelfLink(embed *discordgo.MessageEmbed, url string) *discordgo.MessageEmbed {
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  f.labels.Link,
		Value: fmt.Sprintf("[%s](%s)", f.labels.LinkText, url),
	})
	return embed
}

// WithoutSelfLink clones the embed dropping any link field.
func (f *Formatter) WithoutSelfLink(src *discordgo.MessageEmbed) *discordgo.MessageEmbed {
	clone := cloneEmbed(src)
	kept := clone.Fields[:0]
	for _, field := range clone.Fields {
		if containsFold(f.labels.linkNames, field.Name) {
			continue
		}
		kept = append(kept, field)
	}
	clone.Fields = kept
	return clone
}

// cloneEmbed copies the embed and its fields, skipping nil fields.
func cloneEmbed(src *discordgo.MessageEmbed) *discordgo.MessageEmbed {
	clone := *src
	clone.Fields = make([]*discordgo.MessageEmbedField, 0, len(src.Fields))
	for _, field := range src.Fields {
		if field == nil {
			continue
		}
		copied := *field
		clone.Fields = append(clone.Fields, &copied)
	}
	return &clone
}

// ApplyStatusField replaces the status field in place, or appends one.
func (f *Formatter) ApplyStatusField(embed *discordgo.MessageEmbed, status string) *discordgo.MessageEmbed {
	field := &discordgo.MessageEmbedField{Name: f.labels.Status, Value: status}
	for i, existing := range embed.Fields {
		if existing != nil && containsFold(f.labels.statusNames, existing.Name) {
			embed.Fields[i] = field
			return embed
		}
	}
	embed.Fields = append(embed.Fields, field)
	return embed
}

// TelegramWithLink appends the escaped link block to a Telegram body.
func (f *Formatter) TelegramWithLink(text, url string) string {
	return text + "\n\n" + f.telegramLink(url)
}

func (f *Formatter) telegramLink(url string) string {
	return fmt.Sprintf("[%s](%s)", EscapeMarkdownV2(f.labels.TelegramLink), EscapeMarkdownV2(url))
}

// TelegramReplaceLink drops every previous link block and appends a fresh one.
// A trailing status block stays last.
func (f *Formatter) TelegramReplaceLink(text, url string) string {
	body, status := f.splitStatus(text)
	body = f.labels.tgLinkRe.ReplaceAllString(body, "")
	body = strings.TrimRight(body, " \t\n")
	return f.TelegramWithLink(body, url) + status
}

// TelegramApplyStatus replaces the trailing status block, or appends one.
func (f *Formatter) TelegramApplyStatus(text, status string) string {
	body, _ := f.splitStatus(text)
	return body + "\n\n" + bold(EscapeMarkdownV2(f.labels.TelegramStatus)+":") + " " + EscapeMarkdownV2(status)
}

// splitStatus separates the trailing status block, leading newlines included.
func (f *Formatter) splitStatus(text string) (body, status string) {
	loc := f.labels.tgStatusRe.FindStringIndex(text)
	if loc == nil {
		return text, ""
	}
	return text[:loc[0]], text[loc[0]:]
}
