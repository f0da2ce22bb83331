package commands

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/guild-dispatch/internal/storage"
	"github.com/keshon/guild-dispatch/pkg/cmd"
)

var (
	roleArg      = cmd.Argument{Name: "[ROLE MENTION/ID]", Types: []cmd.ArgType{cmd.TypeRole}}
	rolesArg     = cmd.Argument{Name: "[ROLE MENTION/ID]", Types: []cmd.ArgType{cmd.TypeRole}, Variadic: true}
	userArg      = cmd.Argument{Name: "[USER MENTION/ID]", Types: []cmd.ArgType{cmd.TypeUser}}
	noArguments  = []cmd.Argument{}
	roleCommands = &cmd.Command{
		Name:  "role",
		Guard: roleAccessGuard,
		Subcommands: []*cmd.Command{
			{
				Name:        "managers",
				Permissions: discordgo.PermissionAdministrator,
				Subcommands: []*cmd.Command{
					{Name: "add", Arguments: []cmd.Argument{roleArg, rolesArg}, Handler: managersAdd},
					{
						Name:      "remove",
						Arguments: []cmd.Argument{roleArg, rolesArg},
						Handler:   managersRemove,
						Subcommands: []*cmd.Command{
							{Name: "all", Arguments: []cmd.Argument{roleArg}, Handler: managersRemoveAll},
						},
					},
					{
						Name:      "list",
						Arguments: []cmd.Argument{roleArg},
						Handler:   managersList,
						Subcommands: []*cmd.Command{
							{Name: "all", Arguments: noArguments, Handler: managersListAll},
						},
					},
					{Name: "clear", Arguments: noArguments, Handler: managersClear},
				},
			},
			{Name: "add", Arguments: []cmd.Argument{userArg, rolesArg}, Handler: memberRoles(true)},
			{Name: "remove", Arguments: []cmd.Argument{userArg, rolesArg}, Handler: memberRoles(false)},
		},
	}
)

func init() {
	cmd.DefaultRegistry.MustRegister(roleCommands)
}

// roleAccessGuard enforces the guild's role-command channel list.
func roleAccessGuard(ctx context.Context, inv *cmd.Invocation) (bool, error) {
	env, msg, err := session(inv)
	if err != nil {
		return false, err
	}
	settings, err := env.Storage.Settings(msg.GuildID())
	if err != nil {
		return false, err
	}
	if settings.RoleAccessAllowed(msg.ChannelID()) {
		return true, nil
	}
	return false, reply(ctx, inv, inv.Locale.GetCommon("accessDenied"))
}

func managersAdd(ctx context.Context, inv *cmd.Invocation, args []any) error {
	env, msg, err := session(inv)
	if err != nil {
		return err
	}
	targetID := args[0].(string)
	if _, ok, err := msg.Role(ctx, targetID); err != nil {
		return err
	} else if !ok {
		return reply(ctx, inv, inv.Locale.Get("noTargetRole"))
	}

	manageable, err := env.Storage.ManageableRoles(msg.GuildID(), targetID)
	if err != nil {
		return err
	}

	var added []string
	for _, id := range strs(args[1]) {
		role, ok, err := msg.Role(ctx, id)
		if err != nil {
			return err
		}
		if !ok || slices.Contains(manageable, id) {
			continue
		}
		manageable = append(manageable, id)
		added = append(added, inv.Locale.GetCommonFormatted("roleListEntry", role.Name, id))
	}

	if len(added) == 0 {
		return reply(ctx, inv, inv.Locale.Get("noRoleAdded"))
	}
	if len(manageable) > storage.MaxManageableRoles {
		return reply(ctx, inv, inv.Locale.GetFormatted("maxManagersExceeded", storage.MaxManageableRoles, len(manageable)))
	}
	if err := env.Storage.SetManageableRoles(msg.GuildID(), targetID, manageable); err != nil {
		return err
	}
	return reply(ctx, inv, lines(append([]string{inv.Locale.Get("rolesAdded")}, added...)...))
}

func managersRemove(ctx context.Context, inv *cmd.Invocation, args []any) error {
	env, msg, err := session(inv)
	if err != nil {
		return err
	}
	targetID := args[0].(string)
	if _, ok, err := msg.Role(ctx, targetID); err != nil {
		return err
	} else if !ok {
		return reply(ctx, inv, inv.Locale.Get("noTargetRole"))
	}

	manageable, err := env.Storage.ManageableRoles(msg.GuildID(), targetID)
	if err != nil {
		return err
	}

	var removed []string
	for _, id := range strs(args[1]) {
		role, ok, err := msg.Role(ctx, id)
		if err != nil {
			return err
		}
		if !ok || !slices.Contains(manageable, id) {
			continue
		}
		manageable = slices.DeleteFunc(manageable, func(m string) bool { return m == id })
		removed = append(removed, inv.Locale.GetCommonFormatted("roleListEntry", role.Name, id))
	}

	if len(removed) == 0 {
		return reply(ctx, inv, inv.Locale.Get("noRoleRemoved"))
	}
	if err := env.Storage.SetManageableRoles(msg.GuildID(), targetID, manageable); err != nil {
		return err
	}
	return reply(ctx, inv, lines(append([]string{inv.Locale.Get("rolesRemoved")}, removed...)...))
}

func managersRemoveAll(ctx context.Context, inv *cmd.Invocation, args []any) error {
	env, msg, err := session(inv)
	if err != nil {
		return err
	}
	if err := env.Storage.SetManageableRoles(msg.GuildID(), args[0].(string), nil); err != nil {
		return err
	}
	return reply(ctx, inv, inv.Locale.Get("allRolesRemoved"))
}

func managersList(ctx context.Context, inv *cmd.Invocation, args []any) error {
	env, msg, err := session(inv)
	if err != nil {
		return err
	}
	managerID := args[0].(string)
	manageable, err := env.Storage.ManageableRoles(msg.GuildID(), managerID)
	if err != nil {
		return err
	}
	if len(manageable) == 0 {
		return reply(ctx, inv, inv.Locale.Get("noManageable"))
	}

	out := []string{inv.Locale.Get("roleManageableList")}
	entries, err := managerEntries(ctx, inv, msg, managerID, manageable)
	if err != nil {
		return err
	}
	return reply(ctx, inv, lines(append(out, entries...)...))
}

func managersListAll(ctx context.Context, inv *cmd.Invocation, _ []any) error {
	env, msg, err := session(inv)
	if err != nil {
		return err
	}
	managers, err := env.Storage.RoleManagers(msg.GuildID())
	if err != nil {
		return err
	}
	if len(managers) == 0 {
		return reply(ctx, inv, inv.Locale.Get("noManager"))
	}

	ids := make([]string, 0, len(managers))
	for id := range managers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := []string{inv.Locale.Get("roleManagersList")}
	for _, id := range ids {
		entries, err := managerEntries(ctx, inv, msg, id, managers[id])
		if err != nil {
			return err
		}
		out = append(out, entries...)
	}
	return reply(ctx, inv, lines(out...))
}

// managerEntries renders a manager role followed by its manageable roles.
func managerEntries(ctx context.Context, inv *cmd.Invocation, msg GuildMessage, managerID string, manageable []string) ([]string, error) {
	name, err := roleName(ctx, inv, msg, managerID)
	if err != nil {
		return nil, err
	}
	out := []string{inv.Locale.GetCommonFormatted("softMention", name, managerID)}
	for _, id := range manageable {
		name, err := roleName(ctx, inv, msg, id)
		if err != nil {
			return nil, err
		}
		out = append(out, inv.Locale.GetCommonFormatted("roleListEntry", name, id))
	}
	return out, nil
}

func managersClear(ctx context.Context, inv *cmd.Invocation, _ []any) error {
	env, msg, err := session(inv)
	if err != nil {
		return err
	}
	if err := env.Storage.ClearRoleManagers(msg.GuildID()); err != nil {
		return err
	}
	return reply(ctx, inv, inv.Locale.Get("allManagersRemoved"))
}

// memberRoles builds the handler of "role add" (give) and "role remove".
func memberRoles(give bool) cmd.Handler {
	cantKey, failedKey, doneKey := "cantRemoveAll", "notEnoughPermissionsToRemove", "rolesRemoved"
	if give {
		cantKey, failedKey, doneKey = "cantAddAll", "notEnoughPermissionsToAdd", "rolesAdded"
	}

	return func(ctx context.Context, inv *cmd.Invocation, args []any) error {
		env, msg, err := session(inv)
		if err != nil {
			return err
		}
		targetID, roles := args[0].(string), strs(args[1])
		if len(roles) == 0 {
			return reply(ctx, inv, inv.Locale.Get("noRoleSpecified"))
		}

		allowed, err := isAdmin(ctx, env, msg)
		if err != nil {
			return err
		}
		if !allowed {
			held, err := msg.AuthorRoles(ctx)
			if err != nil {
				return err
			}
			if allowed, err = env.Storage.CanManageRoles(msg.GuildID(), held, roles); err != nil {
				return err
			}
		}
		if !allowed {
			return reply(ctx, inv, inv.Locale.Get(cantKey))
		}

		if ok, err := msg.HasMember(ctx, targetID); err != nil {
			return err
		} else if !ok {
			return reply(ctx, inv, inv.Locale.Get("userNotFound"))
		}

		for _, id := range roles {
			if give {
				err = msg.AddMemberRole(ctx, targetID, id, fmt.Sprintf("Roles added by %s", msg.AuthorID()))
			} else {
				err = msg.RemoveMemberRole(ctx, targetID, id, fmt.Sprintf("Roles removed by %s", msg.AuthorID()))
			}
			if err != nil {
				return reply(ctx, inv, inv.Locale.Get(failedKey))
			}
		}
		return reply(ctx, inv, inv.Locale.Get(doneKey))
	}
}
