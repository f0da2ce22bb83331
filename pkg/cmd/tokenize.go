package cmd

import "strings"

// Tokenize splits s into its runs of non-whitespace characters.
func Tokenize(s string) []string {
	fields := strings.Fields(s)
	if fields == nil {
		return []string{}
	}
	return fields
}
