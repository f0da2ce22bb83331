package cmd

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnknownArgType is returned when an argument names a type tag that has no
// registered coercion. It means the tree skipped validation.
var ErrUnknownArgType = errors.New("unknown argument type")

// Coercer converts a raw token into a typed value. ok is false when the
// token does not fit the type, letting the next declared type try.
type Coercer func(token string) (value any, ok bool)

var (
	channelMention = regexp.MustCompile(`^<#([0-9]+)>$|^([0-9]+)$`)
	userMention    = regexp.MustCompile(`^<@!?([0-9]+)>$|^([0-9]+)$`)
	roleMention    = regexp.MustCompile(`^<@&([0-9]+)>$|^([0-9]+)$`)
)

// argTypes is written only by RegisterArgType, which must run before any
// dispatch (normally from init).
var argTypes = map[ArgType]Coercer{
	TypeString:  func(token string) (any, bool) { return token, true },
	TypeNumber:  coerceNumber,
	TypeBoolean: coerceBoolean,
	TypeChannel: mentionCoercer(channelMention),
	TypeUser:    mentionCoercer(userMention),
	TypeRole:    mentionCoercer(roleMention),
}

// RegisterArgType adds or replaces the coercion behind a type tag. It is not
// safe for concurrent use and must be called before commands are registered.
func RegisterArgType(tag ArgType, c Coercer) {
	argTypes[tag] = c
}

func knownArgType(tag ArgType) bool {
	_, ok := argTypes[tag]
	return ok
}

func coerceNumber(token string) (any, bool) {
	f, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return f, true
}

func coerceBoolean(token string) (any, bool) {
	switch strings.ToLower(token) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return nil, false
}

func mentionCoercer(re *regexp.Regexp) Coercer {
	return func(token string) (any, bool) {
		m := re.FindStringSubmatch(token)
		if m == nil {
			return nil, false
		}
		if m[1] != "" {
			return m[1], true
		}
		return m[2], true
	}
}

// ArgumentErrorKind classifies an argument parse failure.
type ArgumentErrorKind int

const (
	MissingRequired ArgumentErrorKind = iota + 1
	InvalidType
)

func (k ArgumentErrorKind) String() string {
	switch k {
	case MissingRequired:
		return "missing required argument"
	case InvalidType:
		return "invalid argument type"
	default:
		return "argument error"
	}
}

// ArgumentError reports which argument failed and at which token position
// (0-based).
type ArgumentError struct {
	Kind  ArgumentErrorKind
	Index int
	Arg   Argument
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s %q at position %d", e.Kind, e.Arg.Name, e.Index+1)
}

// CoerceArgument converts a single token according to arg. present is false
// when the input ran out of tokens. A non-required absent token yields
// (nil, nil).
func CoerceArgument(token string, present bool, arg Argument, required bool) (any, error) {
	if len(arg.Types) == 0 {
		return nil, &ArgumentError{Kind: InvalidType, Arg: arg}
	}

	if !present {
		if arg.Default != nil {
			return arg.Default, nil
		}
		if required {
			return nil, &ArgumentError{Kind: MissingRequired, Arg: arg}
		}
		return nil, nil
	}

	for _, tag := range arg.Types {
		coerce, ok := argTypes[tag]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownArgType, tag)
		}
		if v, ok := coerce(token); ok {
			return v, nil
		}
	}
	return nil, &ArgumentError{Kind: InvalidType, Arg: arg}
}

// ParseArguments applies defs to tokens left to right. With nil defs the
// tokens are returned as strings. Tokens beyond the last definition are
// ignored, and a variadic slot never gives a token back.
func ParseArguments(tokens []string, defs []Argument) ([]any, error) {
	if defs == nil {
		raw := make([]any, len(tokens))
		for i, t := range tokens {
			raw[i] = t
		}
		return raw, nil
	}

	parsed := make([]any, 0, len(defs))
	cursor := 0
	for _, def := range defs {
		if def.Variadic {
			values := []any{}
			for cursor < len(tokens) {
				v, err := CoerceArgument(tokens[cursor], true, def, false)
				if err != nil {
					var argErr *ArgumentError
					if errors.As(err, &argErr) {
						break
					}
					return nil, err
				}
				values = append(values, v)
				cursor++
			}
			parsed = append(parsed, values)
			continue
		}

		token, present := "", cursor < len(tokens)
		if present {
			token = tokens[cursor]
		}
		v, err := CoerceArgument(token, present, def, true)
		if err != nil {
			var argErr *ArgumentError
			if errors.As(err, &argErr) {
				argErr.Index = cursor
			}
			return nil, err
		}
		parsed = append(parsed, v)
		cursor++
	}
	return parsed, nil
}
