// Package history persists chat conversations in a JSON file.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/alnah/go-chatfmt/internal/completion"
	"github.com/alnah/go-chatfmt/internal/fileutil"
)

// Sentinel errors for history operations.
var (
	ErrChatNotFound = errors.New("chat not found")
	ErrCorrupt      = errors.New("history file is corrupt")
	ErrHistoryIO    = errors.New("history I/O failed")
	ErrEmptyPath    = errors.New("history path is empty")
)

// PlaceholderTitle names a chat created before its first exchange.
// Chats whose title starts with it get a real title on the next update.
const PlaceholderTitle = "New chat"

const (
	titleLength = 25
	titleSuffix = "..."
	maxFileSize = 50 * 1024 * 1024
)

// Entry is one exchange: the user prompt and the raw model answer.
type Entry struct {
	User string    `json:"user"`
	AI   string    `json:"ai"`
	At   time.Time `json:"at"`
}

// Chat is a titled conversation.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Messages  []Entry   `json:"messages"`
}

// Exchanges converts the chat messages for a completion request.
func (c Chat) Exchanges() []completion.Exchange {
	out := make([]completion.Exchange, len(c.Messages))
	for i, m := range c.Messages {
		out[i] = completion.Exchange{User: m.User, AI: m.AI}
	}
	return out
}

// NewChatID returns a fresh chat identifier.
func NewChatID() string {
	return uuid.NewString()
}

// Title derives a chat title from its first prompt.
func Title(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= titleLength {
		return text
	}
	return string([]rune(text)[:titleLength]) + titleSuffix
}

// Update appends an exchange to chat id. Unknown ids start a new chat at
// the front of the list. The input slice is not modified.
func Update(chats []Chat, id, user, ai string, at time.Time) []Chat {
	entry := Entry{User: user, AI: ai, At: at}

	out := make([]Chat, 0, len(chats)+1)
	for i, c := range chats {
		if c.ID != id {
			continue
		}
		c.Messages = append(append([]Entry(nil), c.Messages...), entry)
		c.UpdatedAt = at
		if c.Title == "" || strings.HasPrefix(c.Title, PlaceholderTitle) {
			c.Title = Title(user)
		}
		out = append(out, chats[:i]...)
		out = append(out, c)
		return append(out, chats[i+1:]...)
	}

	out = append(out, Chat{
		ID:        id,
		Title:     Title(user),
		CreatedAt: at,
		UpdatedAt: at,
		Messages:  []Entry{entry},
	})
	return append(out, chats...)
}

// Remove returns chats without chat id.
func Remove(chats []Chat, id string) []Chat {
	out := make([]Chat, 0, len(chats))
	for _, c := range chats {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

// Find returns chat id.
func Find(chats []Chat, id string) (Chat, bool) {
	for _, c := range chats {
		if c.ID == id {
			return c, true
		}
	}
	return Chat{}, false
}

// ---------------------------------------------------------------------------
// Store
// ---------------------------------------------------------------------------

// Store reads and writes the history file. Safe for concurrent use within
// one process.
type Store struct {
	path     string
	maxChats int
	now      func() time.Time
	logger   logrus.FieldLogger

	mu sync.Mutex
}

// NewStore creates a Store for path. maxChats <= 0 keeps every chat.
func NewStore(path string, maxChats int, logger logrus.FieldLogger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyPath
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Store{
		path:     path,
		maxChats: maxChats,
		now:      time.Now,
		logger:   logger.WithField("component", "history"),
	}, nil
}

// Path returns the history file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns all chats, newest first. A missing file is an empty history.
func (s *Store) Load() ([]Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save replaces the history file.
func (s *Store) Save(chats []Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(chats)
}

// Get returns chat id.
func (s *Store) Get(id string) (Chat, error) {
	chats, err := s.Load()
	if err != nil {
		return Chat{}, err
	}
	c, ok := Find(chats, id)
	if !ok {
		return Chat{}, fmt.Errorf("%w: %s", ErrChatNotFound, id)
	}
	return c, nil
}

// Append records an exchange in chat id and persists the history.
// It returns the updated chat.
func (s *Store) Append(id, user, ai string) (Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := s.load()
	if err != nil {
		return Chat{}, err
	}
	chats = Update(chats, id, user, ai, s.now())
	if s.maxChats > 0 && len(chats) > s.maxChats {
		s.logger.WithField("dropped", len(chats)-s.maxChats).Debug("trimming history")
		chats = chats[:s.maxChats]
	}
	if err := s.save(chats); err != nil {
		return Chat{}, err
	}
	c, _ := Find(chats, id)
	return c, nil
}

// Delete removes chat id. Returns ErrChatNotFound when absent.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	chats, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := Find(chats, id); !ok {
		return fmt.Errorf("%w: %s", ErrChatNotFound, id)
	}
	return s.save(Remove(chats, id))
}

func (s *Store) load() ([]Chat, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Chat{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryIO, err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrCorrupt, maxFileSize)
	}

	data, err := os.ReadFile(s.path) // #nosec G304 -- path comes from user config
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryIO, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []Chat{}, nil
	}

	var chats []Chat
	if err := json.Unmarshal(data, &chats); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if chats == nil {
		chats = []Chat{}
	}
	return chats, nil
}

func (s *Store) save(chats []Chat) error {
	if chats == nil {
		chats = []Chat{}
	}
	data, err := json.MarshalIndent(chats, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHistoryIO, err)
	}
	if err := fileutil.WriteAtomic(s.path, data); err != nil {
		return fmt.Errorf("%w: %v", ErrHistoryIO, err)
	}
	s.logger.WithField("chats", len(chats)).Debug("history saved")
	return nil
}
