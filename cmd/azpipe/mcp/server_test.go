// Copyright 2026 The Azpipe Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/azpipe/azpipe/cmd/azpipe/cli"
)

type echoParams struct {
	cli.JSONOutput
	Name string `json:"name" desc:"name to echo" required:"true"`
	Top  int    `json:"top" flag:"top" desc:"limit" default:"5"`
}

type echoResult struct {
	Name string `json:"name"`
	Top  int    `json:"top"`
}

// testRoot builds a command tree with one echo tool and one failing
// tool.
func testRoot() *cli.Command {
	var params echoParams
	echo := &cli.Command{
		Name:        "echo",
		Summary:     "Echo the parameters back",
		Params:      func() any { return &params },
		Output:      func() any { return &echoResult{} },
		Annotations: cli.ReadOnlyLocal(),
		Run: func(args []string) error {
			if params.Name == "" {
				return cli.Validation("name is required")
			}
			done, err := params.EmitJSON(echoResult{Name: params.Name, Top: params.Top})
			if done {
				return err
			}
			fmt.Printf("%s %d\n", params.Name, params.Top)
			return nil
		},
	}

	var failParams struct {
		cli.JSONOutput
		Ignored string `json:"ignored" desc:"unused"`
	}
	fail := &cli.Command{
		Name:        "fail",
		Summary:     "Always fails",
		Params:      func() any { return &failParams },
		Annotations: cli.ReadOnlyLocal(),
		Run: func(args []string) error {
			return cli.Transient("service melting")
		},
	}

	return &cli.Command{
		Name: "azpipe",
		Subcommands: []*cli.Command{
			{Name: "tools", Subcommands: []*cli.Command{echo, fail}},
		},
	}
}

// runServer feeds newline-delimited requests through a fresh server
// and returns the decoded responses.
func runServer(t *testing.T, requests ...string) []map[string]any {
	t.Helper()
	server := NewServer(testRoot())

	var output bytes.Buffer
	if err := server.Run(strings.NewReader(strings.Join(requests, "\n")+"\n"), &output); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	var responses []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(output.String()), "\n") {
		if line == "" {
			continue
		}
		var decoded map[string]any
		if err := json.Unmarshal([]byte(line), &decoded); err != nil {
			t.Fatalf("response %q is not JSON: %v", line, err)
		}
		responses = append(responses, decoded)
	}
	return responses
}

const initRequest = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-11-25","clientInfo":{"name":"test"}}}`

func TestServer_Initialize(t *testing.T) {
	responses := runServer(t, initRequest)
	if len(responses) != 1 {
		t.Fatalf("got %d responses, want 1", len(responses))
	}
	result := responses[0]["result"].(map[string]any)
	if result["protocolVersion"] != protocolVersion {
		t.Errorf("protocolVersion = %v, want %s", result["protocolVersion"], protocolVersion)
	}
	info := result["serverInfo"].(map[string]any)
	if info["name"] != "azpipe" {
		t.Errorf("server name = %v, want azpipe", info["name"])
	}
}

func TestServer_RequiresInitialize(t *testing.T) {
	responses := runServer(t, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	if responses[0]["error"] == nil {
		t.Fatalf("tools/list before initialize = %v, want error", responses[0])
	}
}

func TestServer_ToolsList(t *testing.T) {
	responses := runServer(t, initRequest, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	result := responses[1]["result"].(map[string]any)
	tools := result["tools"].([]any)
	if len(tools) != 2 {
		t.Fatalf("got %d tools, want 2", len(tools))
	}

	first := tools[0].(map[string]any)
	if first["name"] != "azpipe_tools_echo" {
		t.Errorf("tool name = %v, want azpipe_tools_echo", first["name"])
	}
	schema := first["inputSchema"].(map[string]any)
	properties := schema["properties"].(map[string]any)
	if _, ok := properties["name"]; !ok {
		t.Error("input schema missing name property")
	}
	if _, ok := properties["OutputJSON"]; ok {
		t.Error("json:\"-\" field leaked into input schema")
	}
	if first["outputSchema"] == nil {
		t.Error("echo tool missing output schema")
	}
	annotations := first["annotations"].(map[string]any)
	if annotations["readOnlyHint"] != true {
		t.Errorf("annotations = %v, want readOnlyHint true", annotations)
	}
}

func TestServer_ToolsCall(t *testing.T) {
	responses := runServer(t, initRequest,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"azpipe_tools_echo","arguments":{"name":"api-deploy"}}}`)
	result := responses[1]["result"].(map[string]any)
	if result["isError"] == true {
		t.Fatalf("call failed: %v", result)
	}

	structured := result["structuredContent"].(map[string]any)
	if structured["name"] != "api-deploy" {
		t.Errorf("structuredContent.name = %v, want api-deploy", structured["name"])
	}
	// The default from the struct tag applies when the argument is
	// omitted.
	if structured["top"] != float64(5) {
		t.Errorf("structuredContent.top = %v, want default 5", structured["top"])
	}

	content := result["content"].([]any)
	if len(content) == 0 {
		t.Fatal("result has no content blocks")
	}
}

func TestServer_ToolsCall_StateDoesNotBleed(t *testing.T) {
	responses := runServer(t, initRequest,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"azpipe_tools_echo","arguments":{"name":"first","top":9}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"azpipe_tools_echo","arguments":{"name":"second"}}}`)

	second := responses[2]["result"].(map[string]any)
	structured := second["structuredContent"].(map[string]any)
	if structured["name"] != "second" {
		t.Errorf("second call name = %v, want second", structured["name"])
	}
	if structured["top"] != float64(5) {
		t.Errorf("second call top = %v, want default 5 (not 9 from the first call)", structured["top"])
	}
}

func TestServer_ToolsCall_ErrorInfo(t *testing.T) {
	tests := []struct {
		name      string
		request   string
		category  string
		retryable bool
	}{
		{
			name:      "validation error",
			request:   `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"azpipe_tools_echo","arguments":{}}}`,
			category:  "validation",
			retryable: false,
		},
		{
			name:      "transient error",
			request:   `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"azpipe_tools_fail","arguments":{}}}`,
			category:  "transient",
			retryable: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responses := runServer(t, initRequest, tt.request)
			result := responses[1]["result"].(map[string]any)
			if result["isError"] != true {
				t.Fatalf("result = %v, want isError", result)
			}
			info := result["errorInfo"].(map[string]any)
			if info["category"] != tt.category {
				t.Errorf("category = %v, want %s", info["category"], tt.category)
			}
			if (info["retryable"] == true) != tt.retryable {
				t.Errorf("retryable = %v, want %v", info["retryable"], tt.retryable)
			}
		})
	}
}

func TestServer_UnknownToolAndMethod(t *testing.T) {
	responses := runServer(t, initRequest,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"nope","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"resources/list"}`)

	if responses[1]["error"] == nil {
		t.Error("unknown tool call did not error")
	}
	if responses[2]["error"] == nil {
		t.Error("unknown method did not error")
	}
}

func TestServer_NotificationsGetNoResponse(t *testing.T) {
	responses := runServer(t, initRequest,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`)
	if len(responses) != 2 {
		t.Fatalf("got %d responses, want 2 (notification must be silent)", len(responses))
	}
}

func TestServer_ParseError(t *testing.T) {
	responses := runServer(t, `this is not json`)
	errObj := responses[0]["error"].(map[string]any)
	if errObj["code"] != float64(codeParseError) {
		t.Errorf("code = %v, want %d", errObj["code"], codeParseError)
	}
}
