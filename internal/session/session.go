// Package session keeps per-student tutoring state in memory: the output mode,
// the conversation log, the active quiz and exam, and the current tab.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"chemtutor/internal/quiz"
)

var (
	ErrInvalidMode = errors.New("invalid mode")
	ErrNotFound    = errors.New("session not found")
)

type Mode string

const (
	ModeNormal        Mode = "normal"
	ModeAccessibility Mode = "accessibility"
	ModeTeacher       Mode = "teacher"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeNormal, ModeAccessibility, ModeTeacher:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

type Tab string

const (
	TabChat      Tab = "chat"
	TabQuizzes   Tab = "quizzes"
	TabMolecules Tab = "molecules"
	TabExams     Tab = "exams"
	TabPeriodic  Tab = "periodic"
	TabLabs      Tab = "labs"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session is one student's state. Handlers hold Lock for the whole request so
// concurrent requests on a session are serialized.
type Session struct {
	mu sync.Mutex

	ID       string
	Mode     Mode
	Tab      Tab
	History  []Turn
	Quiz     *quiz.Attempt
	Exam     *quiz.Attempt
	lastSeen time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{ID: id, Mode: ModeNormal, Tab: TabChat, lastSeen: now}
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Append adds a user question and the assistant reply to the log.
func (s *Session) Append(question, answer string) {
	s.History = append(s.History,
		Turn{Role: RoleUser, Content: question},
		Turn{Role: RoleAssistant, Content: answer},
	)
}

func (s *Session) ClearHistory() {
	s.History = nil
}

// View is the JSON shape of a session. Callers must hold the lock.
type View struct {
	ID         string        `json:"id"`
	Mode       Mode          `json:"mode"`
	Tab        Tab           `json:"tab"`
	Turns      int           `json:"turns"`
	ActiveQuiz *quiz.Attempt `json:"activeQuiz,omitempty"`
	ActiveExam *quiz.Attempt `json:"activeExam,omitempty"`
}

func (s *Session) View() View {
	return View{
		ID:         s.ID,
		Mode:       s.Mode,
		Tab:        s.Tab,
		Turns:      len(s.History),
		ActiveQuiz: s.Quiz,
		ActiveExam: s.Exam,
	}
}
