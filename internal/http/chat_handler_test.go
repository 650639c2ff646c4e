package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lume/internal/agent"
	"lume/internal/domain"
	"lume/internal/llm"
)

func askRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAsk_UnauthenticatedWritesNothing(t *testing.T) {
	asker := &stubAsker{reply: "hola"}
	env := newTestEnv(t, asker)

	rec := env.do(askRequest(`{"message":"hola"}`))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
		t.Fatalf("expected json error body, got %s", rec.Body.String())
	}
	if env.chats.count() != 0 || asker.calls != 0 {
		t.Fatalf("unauthenticated request must not touch store or agent")
	}
}

func TestAsk_Success(t *testing.T) {
	env := newTestEnv(t, &stubAsker{reply: "Hola ana, ¿como te sientes hoy?"})
	cookie := env.login(t, "ana", "secreto")

	rec := env.do(askRequest(`{"message":"hola"}`), cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["response"] != "Hola ana, ¿como te sientes hoy?" {
		t.Fatalf("unexpected response %q", body["response"])
	}

	turns, _ := env.chats.ListByUsername(t.Context(), "ana")
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != domain.RoleUser || turns[0].Content != "hola" || turns[1].Role != domain.RoleModel {
		t.Fatalf("unexpected transcript: %+v", turns)
	}
}

func TestAsk_InvalidBody(t *testing.T) {
	env := newTestEnv(t, &stubAsker{reply: "x"})
	cookie := env.login(t, "ana", "secreto")

	for _, body := range []string{`{}`, `no es json`, `{"message":"   "}`} {
		rec := env.do(askRequest(body), cookie)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%q: expected 400, got %d", body, rec.Code)
		}
	}
	if env.chats.count() != 0 {
		t.Fatalf("invalid bodies must not be stored")
	}
}

func TestAsk_AgentFailure(t *testing.T) {
	env := newTestEnv(t, &stubAsker{err: errors.New("quota exceeded")})
	cookie := env.login(t, "ana", "secreto")

	rec := env.do(askRequest(`{"message":"hola"}`), cookie)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "agent unavailable") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if env.chats.count() != 1 {
		t.Fatalf("expected the user turn to remain stored, got %d turns", env.chats.count())
	}
}

func TestTranscriptAndProfile(t *testing.T) {
	env := newTestEnv(t, &stubAsker{reply: "te escucho"})
	cookie := env.login(t, "ana", "secreto")
	env.do(askRequest(`{"message":"tuve un dia largo"}`), cookie)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/chat", nil), cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	page := rec.Body.String()
	first := strings.Index(page, "tuve un dia largo")
	second := strings.Index(page, "te escucho")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("expected transcript in order, got %s", page)
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/profile", nil), cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<dd>2</dd>") {
		t.Fatalf("expected turn count in profile: %s", rec.Body.String())
	}
}

func TestAsk_SequentialMessagesReuseAgentSession(t *testing.T) {
	catalog, err := agent.LoadCatalog("")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	sessions := agent.NewInMemorySessionService()
	client := &llm.MockClient{Response: "estoy aqui"}
	runner, err := agent.NewRunner(agent.RunnerConfig{
		AppName:  "lume_mental_health",
		Catalog:  catalog,
		Sessions: sessions,
		Client:   client,
	})
	if err != nil {
		t.Fatalf("runner: %v", err)
	}
	bridge := agent.NewBridge("lume_mental_health", runner, sessions, 0, nil)

	env := newTestEnv(t, bridge)
	cookie := env.login(t, "ana", "secreto")

	for _, msg := range []string{`{"message":"hola"}`, `{"message":"sigo aqui"}`} {
		rec := env.do(askRequest(msg), cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	}

	sess, err := sessions.Get(t.Context(), "lume_mental_health", "ana", agent.SessionIDFor("ana"))
	if err != nil {
		t.Fatalf("expected a single runtime session: %v", err)
	}
	if len(sess.Events) != 4 {
		t.Fatalf("expected both exchanges in the same session, got %d events", len(sess.Events))
	}
	if env.chats.count() != 4 {
		t.Fatalf("expected 4 stored turns, got %d", env.chats.count())
	}
}
