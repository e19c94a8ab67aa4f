package auth

import (
	"github.com/bwmarrin/discordgo"
)

// PermissionChecker decides who may run ping commands.
type PermissionChecker struct {
	allowedRoles map[string]struct{}
}

// NewPermissionChecker creates a checker for the given role ids.
// With no roles configured every guild member is allowed.
func NewPermissionChecker(roleIDs []string) *PermissionChecker {
	roles := make(map[string]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		if id != "" {
			roles[id] = struct{}{}
		}
	}
	return &PermissionChecker{allowedRoles: roles}
}

// CanPing reports whether member may post pings. Administrators always may.
// A nil member (direct message) never may.
func (pc *PermissionChecker) CanPing(member *discordgo.Member) bool {
	if member == nil {
		return false
	}
	if len(pc.allowedRoles) == 0 {
		return true
	}
	if member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	for _, role := range member.Roles {
		if _, ok := pc.allowedRoles[role]; ok {
			return true
		}
	}
	return false
}
