package cmd

import (
	"fmt"
	"sort"
)

// DefaultRegistry is the registry used by the bot and the console.
var DefaultRegistry = NewRegistry()

// Registry stores root commands in declaration order. Every tree is
// validated on the way in, so a Registry never holds a malformed command.
type Registry struct {
	commands []*Command
	byName   map[string]*Command
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Command)}
}

// Register validates and adds root commands. Nothing is added when any of
// them is malformed or reuses a registered name.
func (r *Registry) Register(cmds ...*Command) error {
	pending := make(map[string]struct{}, len(cmds))
	for _, c := range cmds {
		if err := Validate(c); err != nil {
			return err
		}
		if _, dup := r.byName[c.Name]; dup {
			return fmt.Errorf("%w: %s: already registered", ErrMalformedDefinition, c.Name)
		}
		if _, dup := pending[c.Name]; dup {
			return fmt.Errorf("%w: %s: registered twice", ErrMalformedDefinition, c.Name)
		}
		pending[c.Name] = struct{}{}
	}
	for _, c := range cmds {
		r.commands = append(r.commands, c)
		r.byName[c.Name] = c
	}
	return nil
}

// MustRegister is Register for startup code; it panics on malformed trees.
func (r *Registry) MustRegister(cmds ...*Command) {
	if err := r.Register(cmds...); err != nil {
		panic(err)
	}
}

// Get returns the root command with the given name, or nil.
func (r *Registry) Get(name string) *Command {
	return r.byName[name]
}

// Commands returns the root commands in declaration order.
func (r *Registry) Commands() []*Command {
	return append([]*Command(nil), r.commands...)
}

// Sorted returns the root commands sorted by name.
func (r *Registry) Sorted() []*Command {
	list := r.Commands()
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

// Dispatcher returns a dispatcher over the currently registered commands.
func (r *Registry) Dispatcher(scheme PermissionScheme, mws ...Middleware) *Dispatcher {
	return &Dispatcher{
		Commands:    r.Commands(),
		Permissions: scheme,
		Middleware:  mws,
	}
}
