package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alnah/go-chatfmt"
	"github.com/alnah/go-chatfmt/internal/assets"
	"github.com/alnah/go-chatfmt/internal/completion"
	"github.com/alnah/go-chatfmt/internal/history"
	"github.com/alnah/go-chatfmt/internal/metrics"
)

type fakeCompleter struct {
	mu     sync.Mutex
	answer string
	err    error
	ready  bool
	got    [][]completion.Message
}

func (f *fakeCompleter) SendCompletion(_ context.Context, msgs []completion.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, msgs)
	return f.answer, f.err
}

func (f *fakeCompleter) Warmup(context.Context) bool {
	return f.ready
}

type fixture struct {
	srv     *Server
	store   *history.Store
	model   *fakeCompleter
	handler http.Handler
}

func newFixture(t *testing.T, mutate func(*Options)) fixture {
	t.Helper()

	logger, _ := test.NewNullLogger()
	f, err := chatfmt.NewFormatter(
		chatfmt.WithLogger(logger),
		chatfmt.WithIDGenerator(func() string { return "code-t" }),
	)
	require.NoError(t, err)
	page, err := assets.NewPage(assets.NewEmbeddedLoader(), assets.DefaultStyleName, assets.DefaultTemplateName)
	require.NoError(t, err)
	store, err := history.NewStore(filepath.Join(t.TempDir(), "history.json"), 0, logger)
	require.NoError(t, err)
	model := &fakeCompleter{answer: "Use `go test`:\n\n```bash\ngo test ./...\n```", ready: true}

	opts := Options{
		Formatter:    f,
		Page:         page,
		History:      store,
		Completer:    model,
		ContextTurns: 7,
		Logger:       logger,
	}
	if mutate != nil {
		mutate(&opts)
	}
	srv, err := New(opts)
	require.NoError(t, err)
	return fixture{srv: srv, store: store, model: model, handler: srv.Handler()}
}

func (fx fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	fx.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNew_RequiresFormatterAndPage(t *testing.T) {
	t.Parallel()

	_, err := New(Options{})
	assert.ErrorIs(t, err, ErrNoFormatter)

	_, err = New(Options{Formatter: chatfmt.Default()})
	assert.ErrorIs(t, err, ErrNoPage)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := newFixture(t, nil).do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestFormat(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, nil)

	rec := fx.do(t, http.MethodPost, "/api/format", `{"text":"<script>alert(1)</script>Hola\n\n`+"```js\\nconst x = 1"+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[formatResponse](t, rec)
	assert.True(t, strings.HasPrefix(got.HTML, "<p>Hola</p>"), got.HTML)
	assert.NotContains(t, got.HTML, "script")
	require.Len(t, got.Blocks, 1)
	assert.Equal(t, blockJSON{ID: "code-t", Label: "JAVASCRIPT", Content: "const x = 1"}, got.Blocks[0])
	assert.True(t, got.Report.FenceRepaired)
}

func TestFormat_Neutralized(t *testing.T) {
	t.Parallel()

	rec := newFixture(t, nil).do(t, http.MethodPost, "/api/format", `{"text":"<form action=\"/x\"><input></form>"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[formatResponse](t, rec)
	assert.True(t, got.Report.Neutralized)
	assert.Equal(t, "form", got.Report.NeutralizedBy)
	assert.Empty(t, got.Blocks)
}

func TestFormat_BadBody(t *testing.T) {
	t.Parallel()

	rec := newFixture(t, nil).do(t, http.MethodPost, "/api/format", `{"text":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessage_NewChat(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, func(o *Options) { o.SystemPrompt = "Be brief." })

	rec := fx.do(t, http.MethodPost, "/api/chats/new/messages", `{"prompt":"  how do I run tests?  "}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[messageResponse](t, rec)
	assert.Len(t, got.ChatID, 36)
	assert.Equal(t, "how do I run tests?", got.Title)
	assert.Contains(t, got.HTML, `<pre id="code-t">`)
	assert.Contains(t, got.HTML, `data-copy-target="code-t"`)

	require.Len(t, fx.model.got, 1)
	msgs := fx.model.got[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, completion.BaseInstruction+" Be brief.", msgs[0].Content)
	assert.Equal(t, "how do I run tests?", msgs[1].Content)

	chat, err := fx.store.Get(got.ChatID)
	require.NoError(t, err)
	require.Len(t, chat.Messages, 1)
	assert.Equal(t, fx.model.answer, chat.Messages[0].AI, "history keeps the raw answer")
}

func TestSendMessage_ExistingChatSendsContext(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, nil)
	_, err := fx.store.Append("chat-1", "first", "one")
	require.NoError(t, err)

	rec := fx.do(t, http.MethodPost, "/api/chats/chat-1/messages", `{"prompt":"second"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	msgs := fx.model.got[0]
	require.Len(t, msgs, 4)
	assert.Equal(t, completion.Message{Role: completion.RoleUser, Content: "first"}, msgs[1])
	assert.Equal(t, completion.Message{Role: completion.RoleAssistant, Content: "one"}, msgs[2])

	chat, err := fx.store.Get("chat-1")
	require.NoError(t, err)
	assert.Len(t, chat.Messages, 2)
}

func TestSendMessage_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Options)
		target string
		body   string
		want   int
	}{
		{"empty prompt", nil, "/api/chats/new/messages", `{"prompt":"   "}`, http.StatusBadRequest},
		{"prompt too long", nil, "/api/chats/new/messages", `{"prompt":"` + strings.Repeat("a", maxPromptLength+1) + `"}`, http.StatusRequestEntityTooLarge},
		{"unknown chat", nil, "/api/chats/nope/messages", `{"prompt":"x"}`, http.StatusNotFound},
		{"no model", func(o *Options) { o.Completer = nil }, "/api/chats/new/messages", `{"prompt":"x"}`, http.StatusServiceUnavailable},
		{
			"model failure",
			func(o *Options) { o.Completer = &fakeCompleter{err: errors.New("boom")} },
			"/api/chats/new/messages", `{"prompt":"x"}`, http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := newFixture(t, tt.mutate).do(t, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestChatsAPI(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, nil)
	_, err := fx.store.Append("a", "first question", "**bold**")
	require.NoError(t, err)
	_, err = fx.store.Append("b", "second", "plain")
	require.NoError(t, err)

	rec := fx.do(t, http.MethodGet, "/api/chats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]chatSummary](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, 1, list[1].Messages)

	rec = fx.do(t, http.MethodGet, "/api/chats/a", "")
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[chatDetail](t, rec)
	require.Len(t, detail.Messages, 1)
	assert.Equal(t, "<p><strong>bold</strong></p>", detail.Messages[0].HTML)

	rec = fx.do(t, http.MethodDelete, "/api/chats/a", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = fx.do(t, http.MethodDelete, "/api/chats/a", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = fx.do(t, http.MethodGet, "/api/chats/a", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWarmup(t *testing.T) {
	t.Parallel()

	rec := newFixture(t, nil).do(t, http.MethodPost, "/api/warmup", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ready":true}`, rec.Body.String())

	rec = newFixture(t, func(o *Options) { o.Completer = &fakeCompleter{} }).do(t, http.MethodPost, "/api/warmup", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPages(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, func(o *Options) { o.Title = "Abejorro"; o.CopyLabel = "COPIAR" })
	_, err := fx.store.Append("chat-1", "<b>hi</b>", "Hola <script>x</script>**mundo**")
	require.NoError(t, err)

	rec := fx.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Abejorro</title>")
	assert.Contains(t, body, `href="/chats/chat-1"`)
	assert.Contains(t, body, `id="composer"`)

	rec = fx.do(t, http.MethodGet, "/chats/chat-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "&lt;b&gt;hi&lt;/b&gt;", "user text is escaped")
	assert.Contains(t, body, "<strong>mundo</strong>")
	assert.NotContains(t, body, "<script>x</script>")
	assert.Contains(t, body, `data-copy="message">COPIAR</button>`)
	assert.Contains(t, body, `class="active"`)

	rec = fx.do(t, http.MethodGet, "/chats/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPages_ReadOnlyWithoutModel(t *testing.T) {
	t.Parallel()

	rec := newFixture(t, func(o *Options) { o.Completer = nil }).do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `id="composer"`)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, func(o *Options) { o.RateLimit = 0.001; o.Burst = 2 })

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = fx.do(t, http.MethodPost, "/api/format", `{"text":"x"}`).Code
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Pages are not limited.
	assert.Equal(t, http.StatusOK, fx.do(t, http.MethodGet, "/healthz", "").Code)
}

func TestClientLimiter_PerClient(t *testing.T) {
	t.Parallel()

	l := newClientLimiter(1, 1)
	now := time.Now()
	assert.True(t, l.allow("a", now))
	assert.False(t, l.allow("a", now))
	assert.True(t, l.allow("b", now))
	assert.True(t, l.allow("a", now.Add(time.Second)))
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	rec, err := metrics.NewRecorder(reg)
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	f, err := chatfmt.NewFormatter(chatfmt.WithObserver(rec), chatfmt.WithLogger(logger))
	require.NoError(t, err)

	fx := newFixture(t, func(o *Options) {
		o.Formatter = f
		o.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	})
	require.Equal(t, http.StatusOK, fx.do(t, http.MethodPost, "/api/format", `{"text":"hi"}`).Code)

	res := fx.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "chatfmt_responses_total 1")
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- fx.srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
