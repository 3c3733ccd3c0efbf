// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package adapter sits between a host agent framework's own callback
// interface and the event bus: it tracks transient per-run_id state (the
// call a run_id is currently inside, its start time, and the session
// context it inherited) so that when a call ends the adapter can compute
// duration, a structural fingerprint, and an estimated token count before
// publishing, without the framework needing to know any of this bus-facing
// shape itself.
package adapter

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rohithputha/agentgraph/eventbus"
	"github.com/rohithputha/agentgraph/fingerprint"
	"github.com/rohithputha/agentgraph/model"
	"github.com/rohithputha/agentgraph/tokencount"
)

type pendingCall struct {
	startedAt time.Time
	provider  string
	method    string
	model     string
	request   model.Document
}

type sessionContext struct {
	userID    string
	sessionID string
}

// Adapter publishes bus events on behalf of a host framework's callbacks.
// It is safe for concurrent use across run_ids.
type Adapter struct {
	bus     *eventbus.Bus
	counter *tokencount.Counter

	mu      sync.Mutex
	pending map[string]pendingCall
	context map[string]sessionContext
}

// New builds an Adapter that publishes onto bus. It builds its own
// tokencount.Counter for the usage-estimate fallback; a failure to load the
// default encoding leaves counter nil and estimation is skipped rather than
// failing the whole adapter.
func New(bus *eventbus.Bus) *Adapter {
	counter, _ := tokencount.New("")
	return &Adapter{
		bus:     bus,
		counter: counter,
		pending: make(map[string]pendingCall),
		context: make(map[string]sessionContext),
	}
}

// providerSubstrings maps a lowercased substring of a framework's serialized
// class name (e.g. "ChatOpenAI", "AzureChatOpenAI") to the provider it
// identifies. Checked in order so the azure+openai combination is caught
// before the plain openai fallback.
var providerSubstrings = []struct {
	match    []string
	provider string
}{
	{[]string{"azure", "openai"}, "azure_openai"},
	{[]string{"openai"}, "openai"},
	{[]string{"anthropic"}, "anthropic"},
	{[]string{"bedrock"}, "bedrock"},
	{[]string{"vertex"}, "vertexai"},
	{[]string{"gemini"}, "gemini"},
	{[]string{"ollama"}, "ollama"},
	{[]string{"cohere"}, "cohere"},
}

// inferProvider derives a provider name from a framework's serialized class
// name by substring match, defaulting to "unknown" when nothing matches.
func inferProvider(className string) string {
	lower := strings.ToLower(className)
	for _, candidate := range providerSubstrings {
		matched := true
		for _, sub := range candidate.match {
			if !strings.Contains(lower, sub) {
				matched = false
				break
			}
		}
		if matched {
			return candidate.provider
		}
	}
	return "unknown"
}

// methodByProvider fixes the call method each provider exposes for a chat
// completion, since the callback surface never says so directly.
var methodByProvider = map[string]string{
	"openai":       "chat.completions.create",
	"azure_openai": "chat.completions.create",
	"anthropic":    "messages.create",
	"bedrock":      "invoke_model",
	"vertexai":     "generate_content",
	"gemini":       "generate_content",
	"ollama":       "chat",
	"cohere":       "chat",
}

// methodForProvider looks up the fixed call method for a provider, falling
// back to a generic name for providers outside the known set.
func methodForProvider(provider string) string {
	if method, ok := methodByProvider[provider]; ok {
		return method
	}
	return "chat"
}

// flattenMessages concatenates a framework's nested message batches (one
// batch per parallel generation request) into a single ordered slice,
// preserving the order batches and messages within them arrived in.
func flattenMessages(batches [][]model.Document) []any {
	out := make([]any, 0, len(batches))
	for _, batch := range batches {
		for _, msg := range batch {
			out = append(out, map[string]any(msg))
		}
	}
	return out
}

// extractTools reads a tool list out of invocation params, trying
// "tools" first and falling back to the legacy "functions" key, and
// normalises every entry into the {name, description, input_schema} shape
// fingerprint.Compute and the comparator both expect.
func extractTools(invocationParams model.Document) []any {
	raw, ok := invocationParams["tools"]
	if !ok {
		raw, ok = invocationParams["functions"]
	}
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]any, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		// Some providers nest the definition under "function"
		// (OpenAI's tools= shape); others put it at the top level
		// (the older functions= shape).
		if fn, ok := m["function"].(map[string]any); ok {
			m = fn
		}
		out = append(out, map[string]any{
			"name":         m["name"],
			"description":  m["description"],
			"input_schema": m["parameters"],
		})
	}
	return out
}

// resolveSessionContext implements the priority a host framework's callback
// kwargs are searched in to recover which user/session a run belongs to:
// an explicit "configurable" block wins, then event metadata, then whatever
// context this run_id or its parent_run_id already inherited, and finally
// the literal "default" when nothing names it at all.
func (a *Adapter) resolveSessionContext(runID, parentRunID string, configurable, metadata model.Document) (userID, sessionID string) {
	userID, _ = configurable["user_id"].(string)
	sessionID, _ = configurable["session_id"].(string)

	if userID == "" || sessionID == "" {
		if mUser, ok := metadata["user_id"].(string); ok && userID == "" {
			userID = mUser
		}
		if mSession, ok := metadata["session_id"].(string); ok && sessionID == "" {
			sessionID = mSession
		}
	}

	if userID == "" || sessionID == "" {
		a.mu.Lock()
		if ctx, ok := a.context[runID]; ok {
			if userID == "" {
				userID = ctx.userID
			}
			if sessionID == "" {
				sessionID = ctx.sessionID
			}
		} else if parentRunID != "" {
			if ctx, ok := a.context[parentRunID]; ok {
				if userID == "" {
					userID = ctx.userID
				}
				if sessionID == "" {
					sessionID = ctx.sessionID
				}
			}
		}
		a.mu.Unlock()
	}

	if userID == "" {
		userID = "default"
	}
	if sessionID == "" {
		sessionID = "default"
	}

	a.mu.Lock()
	a.context[runID] = sessionContext{userID: userID, sessionID: sessionID}
	a.mu.Unlock()
	return userID, sessionID
}

// forgetSessionContext releases the per-run_id context entry OnChatModelStart
// established, called once the run has reached a terminal event.
func (a *Adapter) forgetSessionContext(runID string) {
	a.mu.Lock()
	delete(a.context, runID)
	a.mu.Unlock()
}

// OnChatModelStart is the framework-facing entry point for a chat model
// invocation: it infers provider and method from the framework's serialized
// class name, flattens the nested message batches the callback surface
// hands over, extracts any tool definitions out of invocation params, and
// resolves which user/session this run belongs to before delegating to
// OnLLMCallStart.
func (a *Adapter) OnChatModelStart(ctx context.Context, className, runID, parentRunID, modelName string, messageBatches [][]model.Document, invocationParams, configurable, metadata model.Document) error {
	provider := inferProvider(className)
	method := methodForProvider(provider)
	userID, sessionID := a.resolveSessionContext(runID, parentRunID, configurable, metadata)

	request := model.NewDocument(map[string]any{
		"messages": flattenMessages(messageBatches),
	})
	if tools := extractTools(invocationParams); tools != nil {
		request["tools"] = tools
	}

	return a.OnLLMCallStart(ctx, userID, sessionID, runID, provider, method, modelName, request)
}

// OnUserInput publishes a user_input event.
func (a *Adapter) OnUserInput(ctx context.Context, userID, sessionID, runID string, caller model.CallerType, content model.Document) error {
	return a.bus.Publish(ctx, model.EventUserInput, model.Event{
		Type: model.EventUserInput, UserID: userID, SessionID: sessionID, RunID: runID,
		TriggeredBy: caller, Content: content, Timestamp: time.Now(),
	})
}

// OnAgentTurnStart publishes agent_turn_start and bumps the tracer's turn counter.
func (a *Adapter) OnAgentTurnStart(ctx context.Context, userID, sessionID, runID string) error {
	return a.bus.Publish(ctx, model.EventAgentTurnStart, model.Event{
		Type: model.EventAgentTurnStart, UserID: userID, SessionID: sessionID, RunID: runID,
		TriggeredBy: model.CallerSystem, Timestamp: time.Now(),
	})
}

// OnAgentTurnEnd publishes agent_turn_end.
func (a *Adapter) OnAgentTurnEnd(ctx context.Context, userID, sessionID, runID string, content model.Document) error {
	return a.bus.Publish(ctx, model.EventAgentTurnEnd, model.Event{
		Type: model.EventAgentTurnEnd, UserID: userID, SessionID: sessionID, RunID: runID,
		TriggeredBy: model.CallerSystem, Content: content, Timestamp: time.Now(),
	})
}

// OnLLMCallStart records the call's start so OnLLMCallEnd can compute
// duration and a fingerprint, then publishes llm_call_start.
func (a *Adapter) OnLLMCallStart(ctx context.Context, userID, sessionID, runID, provider, method, modelName string, request model.Document) error {
	a.mu.Lock()
	a.pending[runID] = pendingCall{startedAt: time.Now(), provider: provider, method: method, model: modelName, request: request}
	a.mu.Unlock()

	return a.bus.Publish(ctx, model.EventLLMCallStart, model.Event{
		Type: model.EventLLMCallStart, UserID: userID, SessionID: sessionID, RunID: runID,
		TriggeredBy: model.CallerSystem, Provider: provider, Method: method, Model: modelName,
		RequestParams: request, Timestamp: time.Now(),
	})
}

// OnLLMCallEnd finalises a pending call and publishes llm_call_end. When the
// caller has no usage block of its own (the provider didn't report one),
// it falls back to estimating prompt/completion tokens from the request and
// response documents.
func (a *Adapter) OnLLMCallEnd(ctx context.Context, userID, sessionID, runID string, response model.Document, usage *model.TokenUsage) error {
	a.mu.Lock()
	pc, ok := a.pending[runID]
	delete(a.pending, runID)
	a.mu.Unlock()
	defer a.forgetSessionContext(runID)

	var durationMs *int64
	provider, method, modelName := "", "", ""
	var request model.Document
	if ok {
		d := time.Since(pc.startedAt).Milliseconds()
		durationMs = &d
		provider, method, modelName = pc.provider, pc.method, pc.model
		request = pc.request
	}

	if usage == nil && a.counter != nil {
		usage = a.counter.EstimateUsage(request, response)
	}

	fp := fingerprint.Compute(provider, method, modelName, request)

	return a.bus.Publish(ctx, model.EventLLMCallEnd, model.Event{
		Type: model.EventLLMCallEnd, UserID: userID, SessionID: sessionID, RunID: runID,
		TriggeredBy: model.CallerSystem, Provider: provider, Method: method, Model: modelName,
		Fingerprint: fp, RequestParams: request, ResponseData: response,
		DurationMs: durationMs, TokenUsage: usage, Timestamp: time.Now(),
	})
}

// OnLLMError finalises a pending call as failed and publishes llm_error.
func (a *Adapter) OnLLMError(ctx context.Context, userID, sessionID, runID string, callErr error) error {
	a.mu.Lock()
	pc, ok := a.pending[runID]
	delete(a.pending, runID)
	a.mu.Unlock()
	defer a.forgetSessionContext(runID)

	provider, method, modelName := "", "", ""
	if ok {
		provider, method, modelName = pc.provider, pc.method, pc.model
	}

	return a.bus.Publish(ctx, model.EventLLMError, model.Event{
		Type: model.EventLLMError, UserID: userID, SessionID: sessionID, RunID: runID,
		TriggeredBy: model.CallerSystem, Provider: provider, Method: method, Model: modelName,
		ErrorMessage: callErr.Error(), Timestamp: time.Now(),
	})
}

// OnToolCallStart publishes tool_call_start, normalising the tool's shape
// via mcp-go's CallToolRequest so frameworks that already speak MCP can
// pass their request straight through.
func (a *Adapter) OnToolCallStart(ctx context.Context, userID, sessionID, runID string, req mcp.CallToolRequest) error {
	content := model.NewDocument(map[string]any{
		"tool_name": req.Params.Name,
		"arguments": req.Params.Arguments,
	})
	return a.bus.Publish(ctx, model.EventToolCallStart, model.Event{
		Type: model.EventToolCallStart, UserID: userID, SessionID: sessionID, RunID: runID,
		TriggeredBy: model.CallerAgent, Content: content, Timestamp: time.Now(),
	})
}

// OnToolCallEnd publishes tool_call_end from an mcp-go tool result.
func (a *Adapter) OnToolCallEnd(ctx context.Context, userID, sessionID, runID string, res *mcp.CallToolResult) error {
	content := model.NewDocument(map[string]any{
		"is_error": res.IsError,
		"content":  extractText(res),
	})
	return a.bus.Publish(ctx, model.EventToolCallEnd, model.Event{
		Type: model.EventToolCallEnd, UserID: userID, SessionID: sessionID, RunID: runID,
		TriggeredBy: model.CallerAgent, Content: content, Timestamp: time.Now(),
	})
}

// OnToolError publishes tool_error.
func (a *Adapter) OnToolError(ctx context.Context, userID, sessionID, runID, toolName string, toolErr error) error {
	content := model.NewDocument(map[string]any{"tool_name": toolName})
	return a.bus.Publish(ctx, model.EventToolError, model.Event{
		Type: model.EventToolError, UserID: userID, SessionID: sessionID, RunID: runID,
		TriggeredBy: model.CallerAgent, Content: content, ErrorMessage: toolErr.Error(), Timestamp: time.Now(),
	})
}

func extractText(res *mcp.CallToolResult) string {
	var out string
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			out += tc.Text
		}
	}
	return out
}

// ToolShape converts an mcp.Tool into the Document shape embedded in an
// llm_call_start's request params when the call carries a tool list, which
// fingerprint.Compute reads back out via extractToolNames.
func ToolShape(tools []mcp.Tool) []any {
	out := make([]any, 0, len(tools))
	for _, t := range tools {
		out = append(out, map[string]any{
			"name":        t.Name,
			"description": t.Description,
		})
	}
	return out
}

// PendingCount reports how many run_ids currently have an in-flight call or
// inherited session context, so tests can assert the adapter leaks neither
// under long-running agents.
func (a *Adapter) PendingCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending) + len(a.context)
}
