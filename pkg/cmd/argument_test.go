package cmd

import (
	"errors"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func arg(name string, variadic bool, types ...ArgType) Argument {
	return Argument{Name: name, Types: types, Variadic: variadic}
}

func TestCoerceArgument_Tags(t *testing.T) {
	tests := []struct {
		name  string
		token string
		types []ArgType
		want  any
		ok    bool
	}{
		{"string identity", "hello", []ArgType{TypeString}, "hello", true},
		{"number", "3.5", []ArgType{TypeNumber}, 3.5, true},
		{"negative number", "-12", []ArgType{TypeNumber}, -12.0, true},
		{"number rejects text", "abc", []ArgType{TypeNumber}, nil, false},
		{"number rejects NaN", "NaN", []ArgType{TypeNumber}, nil, false},
		{"number rejects inf", "inf", []ArgType{TypeNumber}, nil, false},
		{"number rejects -Infinity", "-Infinity", []ArgType{TypeNumber}, nil, false},
		{"infinity falls through to string", "Infinity", []ArgType{TypeNumber, TypeString}, "Infinity", true},
		{"boolean TRUE", "TRUE", []ArgType{TypeBoolean}, true, true},
		{"boolean 1", "1", []ArgType{TypeBoolean}, true, true},
		{"boolean False", "False", []ArgType{TypeBoolean}, false, true},
		{"boolean 0", "0", []ArgType{TypeBoolean}, false, true},
		{"boolean yes", "yes", []ArgType{TypeBoolean}, nil, false},
		{"user nick mention", "<@!123>", []ArgType{TypeUser}, "123", true},
		{"user mention", "<@123>", []ArgType{TypeUser}, "123", true},
		{"user bare id", "123", []ArgType{TypeUser}, "123", true},
		{"user rejects channel", "<#123>", []ArgType{TypeUser}, nil, false},
		{"user rejects role", "<@&123>", []ArgType{TypeUser}, nil, false},
		{"channel mention", "<#123>", []ArgType{TypeChannel}, "123", true},
		{"channel rejects user", "<@123>", []ArgType{TypeChannel}, nil, false},
		{"role mention", "<@&77>", []ArgType{TypeRole}, "77", true},
		{"role rejects trailing text", "<@&77>x", []ArgType{TypeRole}, nil, false},
		{"fallback to second type", "abc", []ArgType{TypeNumber, TypeString}, "abc", true},
		{"first type wins", "1", []ArgType{TypeBoolean, TypeNumber}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CoerceArgument(tt.token, true, Argument{Name: "x", Types: tt.types}, true)
			if !tt.ok {
				var argErr *ArgumentError
				require.ErrorAs(t, err, &argErr)
				assert.Equal(t, InvalidType, argErr.Kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceArgument_NumberRoundTrip(t *testing.T) {
	for _, s := range []string{"3.5", "0", "-2.25", "1e+21", "42"} {
		v, err := CoerceArgument(s, true, arg("n", false, TypeNumber), true)
		require.NoError(t, err)
		assert.Equal(t, s, strconv.FormatFloat(v.(float64), 'g', -1, 64))
	}
}

func TestCoerceArgument_Absent(t *testing.T) {
	t.Run("default used", func(t *testing.T) {
		a := Argument{Name: "n", Types: []ArgType{TypeNumber}, Default: 10.0}
		v, err := CoerceArgument("", false, a, true)
		require.NoError(t, err)
		assert.Equal(t, 10.0, v)
	})

	t.Run("required missing", func(t *testing.T) {
		_, err := CoerceArgument("", false, arg("n", false, TypeNumber), true)
		var argErr *ArgumentError
		require.ErrorAs(t, err, &argErr)
		assert.Equal(t, MissingRequired, argErr.Kind)
	})

	t.Run("optional missing", func(t *testing.T) {
		v, err := CoerceArgument("", false, arg("n", false, TypeNumber), false)
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("no types is always invalid", func(t *testing.T) {
		_, err := CoerceArgument("", false, Argument{Name: "n"}, true)
		var argErr *ArgumentError
		require.ErrorAs(t, err, &argErr)
		assert.Equal(t, InvalidType, argErr.Kind)
	})
}

func TestCoerceArgument_UnknownTag(t *testing.T) {
	_, err := CoerceArgument("x", true, arg("x", false, "colour"), true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownArgType))

	// a successful earlier tag never reaches the unknown one
	v, err := CoerceArgument("x", true, arg("x", false, TypeString, "colour"), true)
	require.NoError(t, err)
	assert.Equal(t, "x", v)
}

func TestParseArguments(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		defs   []Argument
		want   []any
	}{
		{
			name:   "nil definitions pass raw tokens",
			tokens: []string{"1+1", "x"},
			defs:   nil,
			want:   []any{"1+1", "x"},
		},
		{
			name:   "empty definitions yield nothing",
			tokens: []string{"a", "b"},
			defs:   []Argument{},
			want:   []any{},
		},
		{
			name:   "fixed then variadic",
			tokens: []string{"r1", "r2", "r3"},
			defs:   []Argument{arg("role", false, TypeString), arg("roles", true, TypeString)},
			want:   []any{"r1", []any{"r2", "r3"}},
		},
		{
			name:   "variadic may be empty",
			tokens: []string{"42"},
			defs:   []Argument{arg("user", false, TypeUser), arg("roles", true, TypeRole)},
			want:   []any{"42", []any{}},
		},
		{
			name:   "variadic stops at first mismatch",
			tokens: []string{"1", "2", "x", "3"},
			defs:   []Argument{arg("nums", true, TypeNumber)},
			want:   []any{[]any{1.0, 2.0}},
		},
		{
			name:   "trailing tokens ignored",
			tokens: []string{"7", "extra", "tokens"},
			defs:   []Argument{arg("n", false, TypeNumber)},
			want:   []any{7.0},
		},
		{
			name:   "default fills absent slot",
			tokens: []string{"on"},
			defs: []Argument{
				arg("name", false, TypeString),
				{Name: "count", Types: []ArgType{TypeNumber}, Default: 1.0},
			},
			want: []any{"on", 1.0},
		},
		{
			name:   "variadic ignores default",
			tokens: []string{},
			defs:   []Argument{{Name: "ids", Types: []ArgType{TypeUser}, Variadic: true, Default: "0"}},
			want:   []any{[]any{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseArguments(tt.tokens, tt.defs)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseArguments() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseArguments_Errors(t *testing.T) {
	userThenRoles := []Argument{arg("[USER]", false, TypeUser), arg("[ROLES]", true, TypeRole)}

	t.Run("missing required reports cursor", func(t *testing.T) {
		_, err := ParseArguments([]string{}, userThenRoles)
		var argErr *ArgumentError
		require.ErrorAs(t, err, &argErr)
		assert.Equal(t, MissingRequired, argErr.Kind)
		assert.Equal(t, 0, argErr.Index)
		assert.Equal(t, "[USER]", argErr.Arg.Name)
	})

	t.Run("invalid type reports cursor", func(t *testing.T) {
		defs := []Argument{arg("a", false, TypeString), arg("b", false, TypeNumber)}
		_, err := ParseArguments([]string{"x", "y"}, defs)
		var argErr *ArgumentError
		require.ErrorAs(t, err, &argErr)
		assert.Equal(t, InvalidType, argErr.Kind)
		assert.Equal(t, 1, argErr.Index)
		assert.Equal(t, "b", argErr.Arg.Name)
	})

	t.Run("variadic never gives tokens back", func(t *testing.T) {
		defs := []Argument{arg("all", true, TypeString), arg("last", false, TypeString)}
		_, err := ParseArguments([]string{"a", "b"}, defs)
		var argErr *ArgumentError
		require.ErrorAs(t, err, &argErr)
		assert.Equal(t, MissingRequired, argErr.Kind)
		assert.Equal(t, 2, argErr.Index)
	})

	t.Run("unknown tag is not an argument error", func(t *testing.T) {
		_, err := ParseArguments([]string{"x"}, []Argument{arg("x", false, "colour")})
		require.ErrorIs(t, err, ErrUnknownArgType)
		var argErr *ArgumentError
		assert.False(t, errors.As(err, &argErr))
	})
}

func TestRegisterArgType(t *testing.T) {
	const hex ArgType = "hex-test"
	RegisterArgType(hex, func(token string) (any, bool) {
		v, err := strconv.ParseUint(token, 16, 64)
		return v, err == nil
	})
	t.Cleanup(func() { delete(argTypes, hex) })

	got, err := ParseArguments([]string{"ff"}, []Argument{arg("h", false, hex)})
	require.NoError(t, err)
	assert.Equal(t, []any{uint64(255)}, got)
	assert.True(t, IsValid(&Command{Name: "h", Arguments: []Argument{arg("h", false, hex)}, Handler: nopHandler}))
}
