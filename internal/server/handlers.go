package server

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/alnah/go-chatfmt"
	"github.com/alnah/go-chatfmt/internal/assets"
	"github.com/alnah/go-chatfmt/internal/completion"
	"github.com/alnah/go-chatfmt/internal/history"
)

const (
	maxPromptLength = 16_000
	newChatID       = "new"
)

type formatRequest struct {
	Text string `json:"text"`
}

type blockJSON struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Content string `json:"content"`
}

type reportJSON struct {
	DurationMS    float64 `json:"durationMs"`
	DroppedRunes  int     `json:"droppedRunes"`
	FenceRepaired bool    `json:"fenceRepaired"`
	TagsClosed    int     `json:"tagsClosed"`
	CodeBlocks    int     `json:"codeBlocks"`
	Neutralized   bool    `json:"neutralized"`
	NeutralizedBy string  `json:"neutralizedBy,omitempty"`
}

type formatResponse struct {
	HTML   string      `json:"html"`
	Blocks []blockJSON `json:"blocks"`
	Report reportJSON  `json:"report"`
}

type messageRequest struct {
	Prompt string `json:"prompt"`
}

type messageResponse struct {
	ChatID string `json:"chatId"`
	Title  string `json:"title"`
	HTML   string `json:"html"`
}

type chatSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Messages  int       `json:"messages"`
}

type entryJSON struct {
	User string    `json:"user"`
	AI   string    `json:"ai"`
	HTML string    `json:"html"`
	At   time.Time `json:"at"`
}

type chatDetail struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Messages []entryJSON `json:"messages"`
}

func toFormatResponse(res chatfmt.Result) formatResponse {
	blocks := make([]blockJSON, len(res.Blocks))
	for i, b := range res.Blocks {
		blocks[i] = blockJSON(b)
	}
	r := res.Report
	return formatResponse{
		HTML:   res.HTML,
		Blocks: blocks,
		Report: reportJSON{
			DurationMS:    float64(r.Duration) / float64(time.Millisecond),
			DroppedRunes:  r.DroppedRunes,
			FenceRepaired: r.FenceRepaired,
			TagsClosed:    r.TagsClosed,
			CodeBlocks:    r.CodeBlocks,
			Neutralized:   r.Neutralized,
			NeutralizedBy: r.NeutralizedBy,
		},
	}
}

// ---------------------------------------------------------------------------
// Pages
// ---------------------------------------------------------------------------

func (s *Server) indexPage(c echo.Context) error {
	return s.renderPage(c, assets.PageData{})
}

func (s *Server) chatPage(c echo.Context) error {
	chat, err := s.findChat(c.Param("id"))
	if err != nil {
		return err
	}

	msgs := make([]assets.Message, 0, 2*len(chat.Messages))
	for _, m := range chat.Messages {
		msgs = append(msgs,
			assets.Message{Role: "user", Text: m.User},
			assets.Message{Role: "ai", HTML: assets.TrustedFragment(s.opts.Formatter.FormatResponse(m.AI))},
		)
	}
	return s.renderPage(c, assets.PageData{ChatID: chat.ID, Messages: msgs})
}

func (s *Server) renderPage(c echo.Context, data assets.PageData) error {
	data.Title = s.opts.Title
	data.CopyLabel = s.opts.CopyLabel
	data.Interactive = s.opts.Completer != nil && s.opts.History != nil
	if s.opts.History != nil {
		chats, err := s.opts.History.Load()
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to load history").SetInternal(err)
		}
		for _, ch := range chats {
			data.Chats = append(data.Chats, assets.ChatLink{ID: ch.ID, Title: ch.Title})
		}
	}

	var buf bytes.Buffer
	if err := s.opts.Page.Render(&buf, data); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render page").SetInternal(err)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// ---------------------------------------------------------------------------
// API
// ---------------------------------------------------------------------------

func (s *Server) format(c echo.Context) error {
	var req formatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	return c.JSON(http.StatusOK, toFormatResponse(s.opts.Formatter.Format(req.Text)))
}

func (s *Server) listChats(c echo.Context) error {
	if s.opts.History == nil {
		return echo.NewHTTPError(http.StatusNotFound, "history disabled")
	}
	chats, err := s.opts.History.Load()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load history").SetInternal(err)
	}

	out := make([]chatSummary, len(chats))
	for i, ch := range chats {
		out[i] = chatSummary{
			ID:        ch.ID,
			Title:     ch.Title,
			CreatedAt: ch.CreatedAt,
			UpdatedAt: ch.UpdatedAt,
			Messages:  len(ch.Messages),
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getChat(c echo.Context) error {
	chat, err := s.findChat(c.Param("id"))
	if err != nil {
		return err
	}

	out := chatDetail{ID: chat.ID, Title: chat.Title, Messages: make([]entryJSON, len(chat.Messages))}
	for i, m := range chat.Messages {
		out.Messages[i] = entryJSON{
			User: m.User,
			AI:   m.AI,
			HTML: s.opts.Formatter.FormatResponse(m.AI),
			At:   m.At,
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) deleteChat(c echo.Context) error {
	if s.opts.History == nil {
		return echo.NewHTTPError(http.StatusNotFound, "history disabled")
	}
	if err := s.opts.History.Delete(c.Param("id")); err != nil {
		if errors.Is(err, history.ErrChatNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "chat not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete chat").SetInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) sendMessage(c echo.Context) error {
	if s.opts.Completer == nil || s.opts.History == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "model endpoint not configured")
	}

	var req messageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "prompt is empty")
	}
	if utf8.RuneCountInString(prompt) > maxPromptLength {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "prompt too long")
	}

	id := c.Param("id")
	var past []completion.Exchange
	if id == newChatID {
		id = history.NewChatID()
	} else {
		chat, err := s.opts.History.Get(id)
		switch {
		case errors.Is(err, history.ErrChatNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "chat not found")
		case err != nil:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to load history").SetInternal(err)
		}
		past = chat.Exchanges()
	}

	msgs := completion.BuildMessages(s.opts.SystemPrompt, past, s.opts.ContextTurns, prompt)
	answer, err := s.opts.Completer.SendCompletion(c.Request().Context(), msgs)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "model request failed").SetInternal(err)
	}

	chat, err := s.opts.History.Append(id, prompt, answer)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save history").SetInternal(err)
	}

	return c.JSON(http.StatusOK, messageResponse{
		ChatID: chat.ID,
		Title:  chat.Title,
		HTML:   s.opts.Formatter.FormatResponse(answer),
	})
}

func (s *Server) warmup(c echo.Context) error {
	if s.opts.Completer == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "model endpoint not configured")
	}
	if !s.opts.Completer.Warmup(c.Request().Context()) {
		return c.JSON(http.StatusServiceUnavailable, map[string]bool{"ready": false})
	}
	return c.JSON(http.StatusOK, map[string]bool{"ready": true})
}

func (s *Server) findChat(id string) (history.Chat, error) {
	if s.opts.History == nil {
		return history.Chat{}, echo.NewHTTPError(http.StatusNotFound, "history disabled")
	}
	chat, err := s.opts.History.Get(id)
	switch {
	case errors.Is(err, history.ErrChatNotFound):
		return history.Chat{}, echo.NewHTTPError(http.StatusNotFound, "chat not found")
	case err != nil:
		return history.Chat{}, echo.NewHTTPError(http.StatusInternalServerError, "failed to load history").SetInternal(err)
	}
	return chat, nil
}
