package session

import "strings"

type CommandKind int

const (
	CommandUnknown CommandKind = iota
	CommandOpenTab
	CommandHelp
	CommandExit
)

type Command struct {
	Kind CommandKind
	Tab  Tab
}

// Spoken replies for each navigation outcome.
const (
	ReplyChat      = "රසායන විද්‍යා සංවාදය විවෘත කරමින්. ඔබට රසායන විද්‍යාව ගැන ප්‍රශ්න ඇසිය හැක."
	ReplyQuizzes   = "ප්‍රශ්නාවලි විවෘත කරමින්. නව පුහුණු සැසියක් ආරම්භ කිරීමට 'generate quiz' කියන්න."
	ReplyMolecules = "අණුක දෘශ්‍යකරණය විවෘත කරමින්. 'water' හෝ 'benzene' වැනි සංයෝගයක නමක් කියන්න."
	ReplyHelp      = "Available commands: 'chat', 'quiz', 'molecules', 'exit accessibility mode'."
	ReplyExit      = "Exiting accessibility mode."
	ReplyUnknown   = "Command not recognized. Please try again."
)

// ParseCommand maps a transcript onto a navigation command by keyword, first match wins.
func ParseCommand(transcript string) Command {
	t := strings.ToLower(transcript)
	switch {
	case strings.Contains(t, "chat"):
		return Command{Kind: CommandOpenTab, Tab: TabChat}
	case strings.Contains(t, "quiz"), strings.Contains(t, "practice"):
		return Command{Kind: CommandOpenTab, Tab: TabQuizzes}
	case strings.Contains(t, "mole"), strings.Contains(t, "visual"):
		return Command{Kind: CommandOpenTab, Tab: TabMolecules}
	case strings.Contains(t, "help"):
		return Command{Kind: CommandHelp}
	case strings.Contains(t, "exit"), strings.Contains(t, "close"):
		return Command{Kind: CommandExit}
	default:
		return Command{Kind: CommandUnknown}
	}
}

// Apply performs cmd on s and returns the reply to speak. Callers must hold the lock.
func (s *Session) Apply(cmd Command) string {
	switch cmd.Kind {
	case CommandOpenTab:
		s.Tab = cmd.Tab
		switch cmd.Tab {
		case TabQuizzes:
			return ReplyQuizzes
		case TabMolecules:
			return ReplyMolecules
		default:
			return ReplyChat
		}
	case CommandHelp:
		return ReplyHelp
	case CommandExit:
		s.Mode = ModeNormal
		return ReplyExit
	default:
		return ReplyUnknown
	}
}
