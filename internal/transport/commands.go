package transport

import "strings"

// Command is a parsed slash command from the chat.
type Command struct {
	Name string
	ID   string
	Rest string
}

// commandsWithID take an offer id as their first argument.
var commandsWithID = map[string]bool{
	"update": true,
	"remove": true,
	"note":   true,
	"go":     true,
}

// ParseCommand recognizes "/name [id] [rest...]" messages. Any other text is
// a plain message and reported as not-a-command.
func ParseCommand(text string) (Command, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return Command{}, false
	}

	fields := strings.Fields(trimmed[1:])
	if len(fields) == 0 {
		return Command{}, false
	}

	cmd := Command{Name: strings.ToLower(fields[0])}
	rest := fields[1:]
	if commandsWithID[cmd.Name] && len(rest) > 0 {
		cmd.ID = rest[0]
		rest = rest[1:]
	}
	cmd.Rest = strings.Join(rest, " ")
	return cmd, true
}

// HelpText lists the command surface shown for /help.
const HelpText = "**Offer Arena commands:**\n" +
	"`/create` - Start the interactive offer-creation flow\n" +
	"`/update <id>` - Update an offer (use the offer form or the REST API)\n" +
	"`/note <id> <text>` - Attach an extra note to an offer\n" +
	"`/remove <id>` - Remove an offer from consideration\n" +
	"`/list` - List your current offers\n" +
	"`/go [id]` - Continue the debate for one round (all companies, or just one)\n" +
	"`/advise` - Summarize the debate and recommend an offer\n" +
	"`/ping` - Check that the arena is alive\n" +
	"`/help` - Show this message\n" +
	"Anything else you type goes straight into the debate."
