package cmd

import (
	"context"
	"fmt"
	"math/bits"
	"strings"
)

// PermissionScheme describes the platform's permission bits: which bit is
// the administrator superset and which locale key names each bit.
type PermissionScheme struct {
	Administrator int64
	Keys          map[int64]string
}

// Key returns the locale key of a single permission bit, or its hex value
// when the scheme does not know it.
func (s PermissionScheme) Key(bit int64) string {
	if k, ok := s.Keys[bit]; ok {
		return k
	}
	return fmt.Sprintf("0x%x", bit)
}

// MissingPermissionKeys lists the keys of required bits absent from held.
// Holding the administrator bit satisfies everything. Requiring exactly the
// administrator bit reports only that bit.
func MissingPermissionKeys(held, required int64, scheme PermissionScheme) []string {
	if held&required == required || held&scheme.Administrator != 0 {
		return nil
	}
	if scheme.Administrator != 0 && required == scheme.Administrator {
		return []string{scheme.Key(scheme.Administrator)}
	}

	missing := uint64(required &^ held)
	keys := make([]string, 0, bits.OnesCount64(missing))
	for missing != 0 {
		bit := missing & -missing
		keys = append(keys, scheme.Key(int64(bit)))
		missing &^= bit
	}
	return keys
}

// ListMissingPermissions renders permission keys through the
// common.permissions sub-locale, falling back to the raw key.
func ListMissingPermissions(l Locale, keys []string) string {
	names := l.GetSubLocale("common.permissions", true)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k
		if names == nil {
			continue
		}
		if name, ok := names.Lookup(k); ok {
			out[i] = name
		}
	}
	return strings.Join(out, l.GetCommon("listSeparator"))
}

// CheckPermissions tests the invoking member against required in scope and,
// when something is missing, replies with the scope's template. It reports
// whether the member was blocked.
func CheckPermissions(ctx context.Context, inv *Invocation, required int64, scope Scope, scheme PermissionScheme) (bool, error) {
	held, err := inv.Message.MemberPermissions(ctx, scope)
	if err != nil {
		return true, fmt.Errorf("resolve %s permissions: %w", scope, err)
	}

	keys := MissingPermissionKeys(held, required, scheme)
	if len(keys) == 0 {
		return false, nil
	}

	list := ListMissingPermissions(inv.Locale, keys)
	var text string
	if scope == ScopeChannel {
		text = inv.Locale.GetCommonFormatted("noChannelPerms", list, inv.Message.ChannelName())
	} else {
		text = inv.Locale.GetCommonFormatted("noGuildPerms", list)
	}
	if err := inv.Message.Reply(ctx, text); err != nil {
		return true, fmt.Errorf("reply missing permissions: %w", err)
	}
	return true, nil
}
