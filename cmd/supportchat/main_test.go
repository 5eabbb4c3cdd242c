// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"filippo.io/age"

	"github.com/bureau-foundation/supportchat/chat"
	"github.com/bureau-foundation/supportchat/cmd/supportchat/cli"
	"github.com/bureau-foundation/supportchat/lib/config"
	"github.com/bureau-foundation/supportchat/lib/llm"
	"github.com/bureau-foundation/supportchat/supportapi"
	"github.com/bureau-foundation/supportchat/supportapi/supportapitest"
)

// syncBuffer is a bytes.Buffer safe for the logger's goroutines.
type syncBuffer struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

func (b *syncBuffer) Write(data []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.Write(data)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.String()
}

type testStreams struct {
	streams
	stdout *syncBuffer
	stderr *syncBuffer
}

func newStreams(input string) testStreams {
	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	return testStreams{
		streams: streams{stdin: strings.NewReader(input), stdout: stdout, stderr: stderr},
		stdout:  stdout,
		stderr:  stderr,
	}
}

func ticket12() supportapi.Ticket {
	return supportapi.Ticket{
		ID:                "12",
		CompanyID:         "3",
		CompanyName:       "Acme",
		Subject:           "service",
		Message:           "My router keeps rebooting.",
		CustomerFirstName: "Ada",
		CustomerLastName:  "Lovelace",
	}
}

// execute runs the CLI against backend with no config file or .env.
func execute(t *testing.T, std testStreams, backend *supportapitest.Backend, args ...string) error {
	t.Helper()
	t.Setenv("SUPPORTCHAT_CONFIG", "")
	base := []string{"--env-file", filepath.Join(t.TempDir(), "missing.env"), "--log-level", "warn"}
	if backend != nil {
		base = append(base, "--backend", backend.URL())
	}
	if len(args) > 0 && (args[0] == "export") {
		args = append([]string{args[0]}, append(base, args[1:]...)...)
	} else {
		args = append(base, args...)
	}
	return root(std.streams).Execute(context.Background(), args)
}

func TestLineModeCustomer(t *testing.T) {
	backend := supportapitest.New(t)
	backend.PutTicket(ticket12())
	backend.AppendMessage(supportapi.Message{ID: "1", TicketID: "12", AuthorID: "4", Text: "Have you tried turning it off?", FromSupport: true})

	std := newStreams("Yes, twice.\n\n/quit\nnever sent\n")
	if err := execute(t, std, backend, "--ticket", "12"); err != nil {
		t.Fatalf("run: %v\nstderr:\n%s", err, std.stderr.String())
	}

	output := std.stdout.String()
	for _, want := range []string{
		"Acme · Ticket #12 · service",
		"[Support] Welcome Ada Lovelace!",
		"[You] My router keeps rebooting.",
		"[Support] Have you tried turning it off?",
		"[You] Yes, twice.",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if strings.Count(output, "Yes, twice.") != 1 {
		t.Errorf("sent message printed more than once:\n%s", output)
	}

	posted := backend.Posted()
	if len(posted) != 1 || posted[0].Text != "Yes, twice." || posted[0].AuthorID != supportapi.CustomerAuthor {
		t.Errorf("posted = %+v", posted)
	}
}

func TestLineModeRating(t *testing.T) {
	backend := supportapitest.New(t)
	backend.PutTicket(ticket12())
	backend.Resolve("12")

	std := newStreams("/rate 9\n/rate\n/rate 4\nstill there?\n")
	if err := execute(t, std, backend, "--ticket", "12"); err != nil {
		t.Fatalf("run: %v", err)
	}

	output := std.stdout.String()
	for _, want := range []string{
		"-- ticket resolved",
		"-- rate the conversation with /rate 1-5",
		"-- rating not saved",
		"-- usage: /rate 1-5",
		"-- thanks, you rated this conversation 4 of 5",
		"-- not sent",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if got := backend.Ratings("12"); len(got) != 1 || got[0] != 4 {
		t.Errorf("ratings = %v", got)
	}
	if len(backend.Posted()) != 0 {
		t.Errorf("message posted to a resolved ticket: %+v", backend.Posted())
	}
}

func TestLineModeSupportAI(t *testing.T) {
	backend := supportapitest.New(t)
	backend.PutTicket(ticket12())
	backend.SetModelfile("3", "You are Acme support.")

	var prompts []string
	var promptsMu sync.Mutex
	ollama := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var body struct {
			Prompt string `json:"prompt"`
		}
		json.NewDecoder(request.Body).Decode(&body)
		promptsMu.Lock()
		prompts = append(prompts, body.Prompt)
		promptsMu.Unlock()
		json.NewEncoder(writer).Encode(map[string]any{"model": "test", "response": "Sorry for the trouble!", "done": true})
	}))
	t.Cleanup(ollama.Close)

	std := newStreams("> apologize\n")
	err := execute(t, std, backend, "--ticket", "12", "--role", "support", "--agent-id", "4",
		"--ai-provider", "ollama", "--ai-endpoint", ollama.URL+"/api/generate")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	posted := backend.Posted()
	if len(posted) != 1 {
		t.Fatalf("posted = %+v", posted)
	}
	if posted[0].Text != "Sorry for the trouble!" || !posted[0].FromAI || !posted[0].FromSupport || posted[0].AuthorID != "4" {
		t.Errorf("posted = %+v", posted[0])
	}
	promptsMu.Lock()
	defer promptsMu.Unlock()
	if len(prompts) != 1 || !strings.Contains(prompts[0], "You are Acme support.") || !strings.Contains(prompts[0], "apologize") {
		t.Errorf("prompts = %q", prompts)
	}
	if !strings.Contains(std.stdout.String(), "[AI] Sorry for the trouble!") {
		t.Errorf("output:\n%s", std.stdout.String())
	}
}

func TestOpenErrors(t *testing.T) {
	t.Run("missing ticket", func(t *testing.T) {
		backend := supportapitest.New(t)
		err := execute(t, newStreams(""), backend, "--ticket", "99")
		var toolErr *cli.ToolError
		if !errors.As(err, &toolErr) || toolErr.Category != cli.CategoryNotFound {
			t.Fatalf("err = %v, want not found", err)
		}
	})

	t.Run("unreachable backend", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		address := server.URL
		server.Close()

		err := execute(t, newStreams(""), nil, "--ticket", "12", "--backend", address)
		var toolErr *cli.ToolError
		if !errors.As(err, &toolErr) || toolErr.Category != cli.CategoryUnavailable {
			t.Fatalf("err = %v, want unavailable", err)
		}
		if !strings.Contains(toolErr.Hint, address) {
			t.Errorf("hint = %q", toolErr.Hint)
		}
	})

	t.Run("ticket required", func(t *testing.T) {
		err := execute(t, newStreams(""), nil)
		if err == nil || !strings.Contains(err.Error(), "--ticket is required") {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("support without agent", func(t *testing.T) {
		err := execute(t, newStreams(""), nil, "--ticket", "12", "--role", "support")
		if err == nil || !strings.Contains(err.Error(), "viewer.agent_id is required") {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestExportAndInspect(t *testing.T) {
	backend := supportapitest.New(t)
	ticket := ticket12()
	ticket.Resolved = true
	backend.PutTicket(ticket)
	backend.AppendMessage(supportapi.Message{ID: "1", TicketID: "12", AuthorID: "0", Text: "Still broken."})
	backend.AppendMessage(supportapi.Message{ID: "2", TicketID: "12", AuthorID: "4", Text: "Replacement shipped.", FromSupport: true})

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatal(err)
	}
	directory := t.TempDir()
	identityPath := filepath.Join(directory, "key.txt")
	if err := os.WriteFile(identityPath, []byte("# test key\n"+identity.String()+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	transcriptPath := filepath.Join(directory, "ticket-12.sct")

	std := newStreams("")
	err = execute(t, std, backend, "export", "--ticket", "12", "-o", transcriptPath,
		"--compression", "lz4", "--recipient", identity.Recipient().String())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(std.stderr.String(), "2 messages") || !strings.Contains(std.stderr.String(), "encrypted to 1 recipients") {
		t.Errorf("export summary:\n%s", std.stderr.String())
	}

	t.Run("header without identity", func(t *testing.T) {
		inspect := newStreams("")
		if err := root(inspect.streams).Execute(context.Background(), []string{"inspect", "--header", transcriptPath}); err != nil {
			t.Fatalf("inspect --header: %v", err)
		}
		if got := inspect.stdout.String(); !strings.Contains(got, "compression: lz4") || !strings.Contains(got, "encrypted:   true") {
			t.Errorf("header:\n%s", got)
		}
	})

	t.Run("encrypted needs identity", func(t *testing.T) {
		err := root(newStreams("").streams).Execute(context.Background(), []string{"inspect", transcriptPath})
		var toolErr *cli.ToolError
		if !errors.As(err, &toolErr) || !strings.Contains(toolErr.Hint, "--identity") {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("full", func(t *testing.T) {
		inspect := newStreams("")
		if err := root(inspect.streams).Execute(context.Background(), []string{"inspect", "-i", identityPath, transcriptPath}); err != nil {
			t.Fatalf("inspect: %v", err)
		}
		output := inspect.stdout.String()
		for _, want := range []string{
			"ticket:      #12 service (Acme)",
			"customer:    Ada Lovelace",
			"resolved:    true",
			"[Ada Lovelace] My router keeps rebooting.",
			"[Ada Lovelace] Still broken.",
			"[Support] Replacement shipped.",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("inspect missing %q:\n%s", want, output)
			}
		}
	})

	t.Run("missing file", func(t *testing.T) {
		err := root(newStreams("").streams).Execute(context.Background(), []string{"inspect", filepath.Join(directory, "nope.sct")})
		var toolErr *cli.ToolError
		if !errors.As(err, &toolErr) || toolErr.Category != cli.CategoryNotFound {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestSessionOptionsLoad(t *testing.T) {
	t.Setenv("SUPPORTCHAT_CONFIG", "")
	directory := t.TempDir()

	envPath := filepath.Join(directory, "test.env")
	if err := os.WriteFile(envPath, []byte("SUPPORTCHAT_TEST_BACKEND=http://support.internal:5000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("SUPPORTCHAT_TEST_BACKEND") })

	configPath := filepath.Join(directory, "supportchat.yaml")
	configYAML := `
backend:
  url: ${SUPPORTCHAT_TEST_BACKEND}
ai:
  provider: openai
  endpoint: https://api.example.com/v1
  model: small
  requests_per_minute: 30
viewer:
  role: support
  agent_id: "4"
`
	if err := os.WriteFile(configPath, []byte(configYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	options := &sessionOptions{configPath: configPath, envFile: envPath, model: "large", companyID: "9"}
	cfg, err := options.load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend.URL != "http://support.internal:5000" {
		t.Errorf("backend = %q, want value from env file", cfg.Backend.URL)
	}
	if cfg.AI.Model != "large" {
		t.Errorf("model = %q, want flag override", cfg.AI.Model)
	}
	who, err := viewer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if who.Role != chat.RoleSupport || who.AgentID != "4" || who.CompanyID != "9" {
		t.Errorf("viewer = %+v", who)
	}

	options.role = "manager"
	if _, err := options.load(); err == nil {
		t.Error("invalid role accepted")
	}
}

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name    string
		config  config.AIConfig
		wantErr bool
	}{
		{"ollama", config.AIConfig{Provider: config.ProviderOllama, Endpoint: "http://127.0.0.1:11434/api/generate", Model: "llama3.2"}, false},
		{"openai", config.AIConfig{Provider: config.ProviderOpenAI, Endpoint: "https://api.example.com/v1", APIKey: "key", Model: "small"}, false},
		{"anthropic", config.AIConfig{Provider: config.ProviderAnthropic, Endpoint: "https://api.anthropic.com", APIKey: "key", Model: "claude"}, false},
		{"gemini", config.AIConfig{Provider: config.ProviderGemini, APIKey: "key", Model: "gemini-2.0-flash"}, false},
		{"unknown", config.AIConfig{Provider: "carrier-pigeon"}, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			generator, err := newGenerator(context.Background(), &test.config)
			if test.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil || generator == nil {
				t.Fatalf("newGenerator: %v", err)
			}
		})
	}

	t.Run("throttled", func(t *testing.T) {
		generator, err := newGenerator(context.Background(), &config.AIConfig{
			Provider: config.ProviderOllama, Endpoint: "http://127.0.0.1:11434/api/generate", Model: "m", RequestsPerMinute: 6,
		})
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := generator.(*llm.Throttled); !ok {
			t.Errorf("generator is %T, want *llm.Throttled", generator)
		}
	})
}

func TestStatsSample(t *testing.T) {
	sample := statsSample(chat.SessionStats{
		Poll:     chat.PollerStats{Ticks: 10, Skipped: 2, Refreshes: 8, Failures: 1},
		Dispatch: chat.DispatcherStats{Plain: 3, Generations: 2, Fallbacks: 1},
		Submit:   chat.SubmitterStats{Writes: 5, WriteFailures: 1},
		Status:   chat.SyncStatus{Loaded: true, Reconnecting: true, ConsecutiveFailures: 1},
	})
	if sample.PollTicks != 10 || sample.PollSkipped != 2 || sample.Refreshes != 8 || sample.RefreshFailures != 1 {
		t.Errorf("poll counters = %+v", sample)
	}
	if sample.PlainMessages != 3 || sample.Generations != 2 || sample.Fallbacks != 1 {
		t.Errorf("dispatch counters = %+v", sample)
	}
	if sample.Writes != 5 || sample.WriteFailures != 1 || !sample.Reconnecting || sample.ConsecutiveFailures != 1 {
		t.Errorf("write and status = %+v", sample)
	}
}

func TestVersionCommand(t *testing.T) {
	std := newStreams("")
	if err := root(std.streams).Execute(context.Background(), []string{"version"}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(std.stdout.String(), "supportchat ") {
		t.Errorf("version output = %q", std.stdout.String())
	}
}
