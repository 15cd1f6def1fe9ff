package tui

import "strings"

// Command names accepted by the ':' prompt.
const (
	CmdImport        = "import"
	CmdExport        = "export"
	CmdArchive       = "archive"
	CmdConversations = "conversations"
	CmdReload        = "reload"
	CmdQuit          = "quit"
)

var commandAliases = map[string]string{
	"imp":   CmdImport,
	"exp":   CmdExport,
	"ar":    CmdArchive,
	"arch":  CmdArchive,
	"conv":  CmdConversations,
	"convs": CmdConversations,
	"r":     CmdReload,
	"q":     CmdQuit,
	"q!":    CmdQuit,
}

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (without the leading ':'). Aliases
// resolve to their full command name.
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	name, args, _ := strings.Cut(input, " ")
	cmd := Command{Name: strings.ToLower(name), Args: strings.TrimSpace(args)}
	if full, ok := commandAliases[cmd.Name]; ok {
		cmd.Name = full
	}
	return cmd
}
