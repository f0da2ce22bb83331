package cmd

import "context"

// Handler is the terminal action of a command. args holds one value per
// declared Argument (a []any for variadic slots), or the raw tokens as
// strings when the command declares no Arguments.
type Handler func(ctx context.Context, inv *Invocation, args []any) error

// Guard decides whether a matched command may proceed. A guard that returns
// false is responsible for telling the user why.
type Guard func(ctx context.Context, inv *Invocation) (bool, error)

// Command is one node of the command tree. Leaves have a Handler, routers
// have Subcommands; a node may have both.
type Command struct {
	Name     string
	Shortcut string

	// Permissions are the bits required to run the command; zero means none.
	Permissions int64
	Scope       Scope

	Guard       Guard
	Subcommands []*Command

	// Arguments declares the typed arguments. A nil slice passes the raw
	// tokens through unparsed.
	Arguments []Argument
	Handler   Handler
}

// ArgType is a tag naming a registered argument coercion.
type ArgType string

const (
	TypeString  ArgType = "string"
	TypeNumber  ArgType = "number"
	TypeBoolean ArgType = "boolean"
	TypeChannel ArgType = "channel"
	TypeUser    ArgType = "user"
	TypeRole    ArgType = "role"
)

// Argument describes one positional argument.
type Argument struct {
	// Name is shown in error replies, e.g. "[ROLE MENTION/ID]".
	Name  string
	Types []ArgType
	// Variadic arguments consume every remaining token of their types and
	// must come last.
	Variadic bool
	// Default is used when the token is absent; nil makes the argument
	// required. Ignored for variadic arguments.
	Default any
}

// matches reports whether token selects c.
func (c *Command) matches(token string, shortcuts bool) bool {
	if shortcuts && c.Shortcut != "" && c.Shortcut == token {
		return true
	}
	return c.Name == token
}
