package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/keshon/guild-dispatch/pkg/cmd"
)

const allPermissions = ^int64(0)

// PermissionKeys names permission bits under common.permissions in the
// locale bundles.
var PermissionKeys = map[int64]string{
	discordgo.PermissionCreateInstantInvite: "createInstantInvite",
	discordgo.PermissionKickMembers:         "kickMembers",
	discordgo.PermissionBanMembers:          "banMembers",
	discordgo.PermissionAdministrator:       "administrator",
	discordgo.PermissionManageChannels:      "manageChannels",
	discordgo.PermissionManageGuild:         "manageGuild",
	discordgo.PermissionAddReactions:        "addReactions",
	discordgo.PermissionViewAuditLogs:       "viewAuditLogs",
	discordgo.PermissionViewChannel:         "viewChannel",
	discordgo.PermissionSendMessages:        "sendMessages",
	discordgo.PermissionManageMessages:      "manageMessages",
	discordgo.PermissionEmbedLinks:          "embedLinks",
	discordgo.PermissionAttachFiles:         "attachFiles",
	discordgo.PermissionReadMessageHistory:  "readMessageHistory",
	discordgo.PermissionMentionEveryone:     "mentionEveryone",
	discordgo.PermissionVoiceConnect:        "voiceConnect",
	discordgo.PermissionVoiceSpeak:          "voiceSpeak",
	discordgo.PermissionVoiceMuteMembers:    "voiceMuteMembers",
	discordgo.PermissionVoiceDeafenMembers:  "voiceDeafenMembers",
	discordgo.PermissionVoiceMoveMembers:    "voiceMoveMembers",
	discordgo.PermissionChangeNickname:      "changeNickname",
	discordgo.PermissionManageNicknames:     "manageNicknames",
	discordgo.PermissionManageRoles:         "manageRoles",
	discordgo.PermissionManageWebhooks:      "manageWebhooks",
	discordgo.PermissionManageThreads:       "manageThreads",
	discordgo.PermissionModerateMembers:     "moderateMembers",
}

// Scheme is the Discord permission scheme handed to the dispatcher.
var Scheme = cmd.PermissionScheme{
	Administrator: discordgo.PermissionAdministrator,
	Keys:          PermissionKeys,
}

// GuildPermissions computes a member's guild-wide permissions from the
// @everyone role and the member's roles. The owner and administrators hold
// every permission.
func GuildPermissions(guild *discordgo.Guild, userID string, roleIDs []string) int64 {
	if guild.OwnerID == userID {
		return allPermissions
	}

	held := make(map[string]struct{}, len(roleIDs)+1)
	held[guild.ID] = struct{}{}
	for _, id := range roleIDs {
		held[id] = struct{}{}
	}

	var perms int64
	for _, r := range guild.Roles {
		if _, ok := held[r.ID]; ok {
			perms |= r.Permissions
		}
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return allPermissions
	}
	return perms
}
