package core

import (
	"strings"

	"github.com/fatih/color"
)

var (
	promptUserColor = color.New(color.FgGreen, color.Bold)
	promptDirColor  = color.New(color.FgBlue, color.Bold)
)

// PromptVars are the values a prompt template can reference.
type PromptVars struct {
	Name string
	User string
	Host string
	Dir  string
	Home string
	Root bool

	// Color wraps the user, host and directory in ANSI colors.
	Color bool
}

// ExpandPrompt fills in a prompt template:
//
//	\s  shell name
//	\u  user name
//	\h  host name up to the first dot
//	\w  working directory, $HOME shortened to ~
//	\$  # for root, $ otherwise
//	\\  a backslash
//
// Unknown escapes are kept as they are.
func ExpandPrompt(template string, vars PromptVars) string {
	paint := func(c *color.Color, s string) string {
		if vars.Color {
			return c.Sprint(s)
		}
		return s
	}

	var sb strings.Builder
	for i := 0; i < len(template); i++ {
		if template[i] != '\\' || i+1 == len(template) {
			sb.WriteByte(template[i])
			continue
		}

		i++
		switch template[i] {
		case 's':
			sb.WriteString(vars.Name)
		case 'u':
			sb.WriteString(paint(promptUserColor, vars.User))
		case 'h':
			host := vars.Host
			if idx := strings.IndexByte(host, '.'); idx >= 0 {
				host = host[:idx]
			}
			sb.WriteString(paint(promptUserColor, host))
		case 'w':
			sb.WriteString(paint(promptDirColor, shortenHome(vars.Dir, vars.Home)))
		case '$':
			if vars.Root {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('$')
			}
		case '\\':
			sb.WriteByte('\\')
		default:
			sb.WriteByte('\\')
			sb.WriteByte(template[i])
		}
	}
	return sb.String()
}

func shortenHome(dir, home string) string {
	home = strings.TrimSuffix(home, "/")
	switch {
	case home == "":
		return dir
	case dir == home:
		return "~"
	case strings.HasPrefix(dir, home+"/"):
		return "~" + strings.TrimPrefix(dir, home)
	default:
		return dir
	}
}
