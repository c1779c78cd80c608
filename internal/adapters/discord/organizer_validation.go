package discord

import "github.com/bwmarrin/discordgo"

// isOrganizer reports whether member may manage the event: its creator, or
// anyone allowed to manage the server's events.
func isOrganizer(member *discordgo.Member, organizerID string) bool {
	if member == nil || member.User == nil {
		return false
	}
	if organizerID != "" && member.User.ID == organizerID {
		return true
	}
	return member.Permissions&discordgo.PermissionManageEvents != 0
}
