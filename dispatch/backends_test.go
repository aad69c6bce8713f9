package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaioption "github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sarahdemo/board"
	"sarahdemo/model"
	"sarahdemo/persona"
	"sarahdemo/provider"
)

// recorder answers one scripted JSON body per request on path and keeps
// every decoded request body.
type recorder struct {
	mu     sync.Mutex
	bodies []map[string]any
}

func (rec *recorder) serve(t *testing.T, path string, responses ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		rec.mu.Lock()
		n := len(rec.bodies)
		rec.bodies = append(rec.bodies, body)
		rec.mu.Unlock()

		if n >= len(responses) {
			http.Error(w, "unexpected request", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(responses[n]))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (rec *recorder) requests() []map[string]any {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]map[string]any(nil), rec.bodies...)
}

// runSprintTurn drives the trello-board persona through one build_board
// call and its follow-up.
func runSprintTurn(t *testing.T, p model.Provider) *Result {
	t.Helper()
	sarah := loadPersona(t, persona.TrelloBoard)
	mem := board.NewMemory()
	d := New(p, zap.NewNop())

	tools, err := d.Toolbox(sarah, Board{Adapter: mem, Policy: Await})
	require.NoError(t, err)

	res, err := d.Run(context.Background(), Turn{
		Messages:     AssembleTurn(sarah.Prompt, nil, "We run sprints."),
		Tools:        tools,
		DefaultReply: sarah.DefaultReply,
	})
	require.NoError(t, err)
	require.Len(t, mem.Items(), 1)
	return res
}

func declaredTools(body map[string]any) int {
	tools, _ := body["tools"].([]any)
	return len(tools)
}

func TestAnthropicFollowUpDeclaresToolsWithoutCalls(t *testing.T) {
	rec := &recorder{}
	srv := rec.serve(t, "/v1/messages",
		`{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5-20250929",
		  "content":[{"type":"tool_use","id":"toolu_1","name":"build_board","input":{"workflow_name":"Sprint","cards":[{"name":"Build"}]}}],
		  "stop_reason":"tool_use","stop_sequence":null,"usage":{"input_tokens":10,"output_tokens":5}}`,
		`{"id":"msg_2","type":"message","role":"assistant","model":"claude-sonnet-4-5-20250929",
		  "content":[{"type":"text","text":"Your Sprint board is live."}],
		  "stop_reason":"end_turn","stop_sequence":null,"usage":{"input_tokens":20,"output_tokens":5}}`,
	)

	p, err := provider.NewAnthropicProvider(srv.URL, "sk-ant-test", "", anthropicoption.WithMaxRetries(0))
	require.NoError(t, err)

	res := runSprintTurn(t, p)
	assert.Equal(t, "Your Sprint board is live.", res.Reply)

	bodies := rec.requests()
	require.Len(t, bodies, 2)
	assert.Nil(t, bodies[0]["tool_choice"])

	followUp := bodies[1]
	assert.Equal(t, 1, declaredTools(followUp), "tool_use history needs the tool declared")
	assert.Equal(t, map[string]any{"type": "none"}, followUp["tool_choice"])
	msgs, _ := followUp["messages"].([]any)
	assert.Len(t, msgs, 3, "user, assistant tool_use, user tool_result")
}

func TestOpenAIFollowUpDeclaresToolsWithoutCalls(t *testing.T) {
	rec := &recorder{}
	srv := rec.serve(t, "/v1/chat/completions",
		`{"id":"chatcmpl-1","object":"chat.completion","created":1700000000,"model":"gpt-4o",
		  "choices":[{"index":0,"finish_reason":"tool_calls","message":{"role":"assistant","content":null,"refusal":null,
		  "tool_calls":[{"id":"call_1","type":"function","function":{"name":"build_board","arguments":"{\"workflow_name\":\"Sprint\",\"cards\":[{\"name\":\"Build\"}]}"}}]}}]}`,
		`{"id":"chatcmpl-2","object":"chat.completion","created":1700000001,"model":"gpt-4o",
		  "choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Your Sprint board is live.","refusal":null}}]}`,
	)

	p, err := provider.NewOpenAIProvider(srv.URL+"/v1", "test-key", "gpt-4o", openaioption.WithMaxRetries(0))
	require.NoError(t, err)

	res := runSprintTurn(t, p)
	assert.Equal(t, "Your Sprint board is live.", res.Reply)

	bodies := rec.requests()
	require.Len(t, bodies, 2)
	assert.Nil(t, bodies[0]["tool_choice"])
	assert.Equal(t, 1, declaredTools(bodies[1]))
	assert.Equal(t, "none", bodies[1]["tool_choice"])
}

func TestOllamaFollowUpOmitsTools(t *testing.T) {
	rec := &recorder{}
	srv := rec.serve(t, "/api/chat",
		`{"model":"llama3.1:latest","message":{"role":"assistant","content":"","tool_calls":[{"function":{"name":"build_board","arguments":{"workflow_name":"Sprint","cards":[{"name":"Build"}]}}}]},"done":true}`+"\n",
		`{"model":"llama3.1:latest","message":{"role":"assistant","content":"Your Sprint board is live.","tool_calls":[{"function":{"name":"build_board","arguments":{"workflow_name":"Again","cards":[{"name":"Twice"}]}}}]},"done":true}`+"\n",
	)

	p, err := provider.NewOllamaProvider(srv.URL, "llama3.1:latest", srv.Client())
	require.NoError(t, err)

	res := runSprintTurn(t, p)
	assert.Equal(t, "Your Sprint board is live.", res.Reply)
	assert.Len(t, res.Calls, 1, "calls returned after tool_choice none are dropped")

	bodies := rec.requests()
	require.Len(t, bodies, 2)
	assert.Equal(t, 1, declaredTools(bodies[0]))
	assert.Zero(t, declaredTools(bodies[1]))
}
