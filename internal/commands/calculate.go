package commands

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/expr-lang/expr"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/keshon/guild-dispatch/pkg/cmd"
)

var errNotFinite = errors.New("result is not a finite number")

func init() {
	cmd.DefaultRegistry.MustRegister(&cmd.Command{
		Name:     "calculate",
		Shortcut: "calc",
		Handler:  calculate,
	})
}

// mathEnv is everything an expression can reach.
var mathEnv = map[string]any{
	"pi":    math.Pi,
	"e":     math.E,
	"phi":   math.Phi,
	"abs":   math.Abs,
	"sqrt":  math.Sqrt,
	"cbrt":  math.Cbrt,
	"pow":   math.Pow,
	"exp":   math.Exp,
	"log":   math.Log,
	"log2":  math.Log2,
	"log10": math.Log10,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"atan2": math.Atan2,
	"floor": math.Floor,
	"ceil":  math.Ceil,
	"round": math.Round,
	"trunc": math.Trunc,
	"hypot": math.Hypot,
	"mod":   math.Mod,
}

// Evaluate computes a math expression. Only the functions and constants of
// mathEnv are available.
func Evaluate(input string) (float64, error) {
	program, err := expr.Compile(input, expr.Env(mathEnv), expr.DisableAllBuiltins(), expr.AsFloat64())
	if err != nil {
		return 0, err
	}
	out, err := expr.Run(program, mathEnv)
	if err != nil {
		return 0, err
	}
	v, _ := out.(float64)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	return v, nil
}

// FormatNumber renders v with the digit grouping and decimal mark of tag.
func FormatNumber(tag string, v float64) string {
	lang, err := language.Parse(tag)
	if err != nil {
		lang = language.English
	}
	return message.NewPrinter(lang).Sprint(number.Decimal(v, number.MaxFractionDigits(10)))
}

func calculate(ctx context.Context, inv *cmd.Invocation, args []any) error {
	input := strings.Join(strs(args), " ")
	if input == "" {
		return reply(ctx, inv, inv.Locale.Get("expressionError"))
	}

	v, err := Evaluate(input)
	if err != nil {
		return reply(ctx, inv, inv.Locale.Get("expressionError"))
	}
	return reply(ctx, inv, inv.Locale.GetFormatted("expressionResult", input, FormatNumber(localeTag(inv.Locale), v)))
}

func localeTag(l cmd.Locale) string {
	if t, ok := l.(interface{ Tag() string }); ok {
		return t.Tag()
	}
	return "en"
}
