package core

import "strings"

// Command is one tokenized step: the program to start and its arguments.
type Command struct {
	Program string
	Args    []string
}

// NewCommand builds a Command from tokens as produced by Tokenize.
// An empty token list yields an empty Command.
func NewCommand(tokens []string) Command {
	if len(tokens) == 0 {
		return Command{}
	}
	return Command{Program: tokens[0], Args: tokens[1:]}
}

// String re-serializes the command for diagnostics. Arguments containing
// whitespace are wrapped in double quotes, so the result is not necessarily
// identical to the line the command was parsed from.
func (c Command) String() string {
	var sb strings.Builder
	sb.WriteString(c.Program)
	for _, arg := range c.Args {
		sb.WriteByte(' ')
		if strings.ContainsAny(arg, " \t\n\r") {
			sb.WriteByte('"')
			sb.WriteString(arg)
			sb.WriteByte('"')
		} else {
			sb.WriteString(arg)
		}
	}
	return sb.String()
}
