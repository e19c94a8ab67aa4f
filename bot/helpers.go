package bot

import (
	"github.com/bwmarrin/discordgo"
)

// applicationID prefers the application from the Ready payload; for bots it
// equals the bot user id.
func applicationID(r *discordgo.Ready) string {
	if r == nil {
		return ""
	}
	if r.Application != nil && r.Application.ID != "" {
		return r.Application.ID
	}
	if r.User != nil {
		return r.User.ID
	}
	return ""
}

func userTag(u *discordgo.User) string {
	if u == nil {
		return "unknown user"
	}
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}

func commandNames(cmds []*discordgo.ApplicationCommand) []string {
	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		names = append(names, "/"+c.Name)
	}
	return names
}
