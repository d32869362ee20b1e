// Copyright 2026 © The MAESD Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp exposes the MAESD tool registry over the Model Context
// Protocol, so external agent hosts can call the annotation databases and
// the design tools directly.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/maesd-ai/maesd/pkg/core"
	"github.com/maesd-ai/maesd/pkg/tools"
)

// Server serves registered MAESD tools over MCP stdio.
type Server struct {
	srv *server.MCPServer
}

// NewServer creates an MCP server and registers every tool from the registry.
func NewServer(name, version string, registry *tools.Registry) *Server {
	s := &Server{srv: server.NewMCPServer(name, version)}
	if registry != nil {
		for _, t := range registry.All() {
			s.addTool(t)
		}
	}
	return s
}

func (s *Server) addTool(t core.Tool) {
	def := mcp.NewTool(t.Name(),
		mcp.WithDescription(t.Description()),
		mcp.WithString("input", mcp.Description("primary input for the tool")),
	)
	s.srv.AddTool(def, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]any)
		out, err := t.Call(ctx, callInput(args))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text, err := renderOutput(out)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	})
}

// callInput unwraps single-key {"input": ...} argument maps so tools that
// take a plain string receive one.
func callInput(args map[string]any) any {
	if len(args) == 1 {
		if v, ok := args["input"]; ok {
			return v
		}
	}
	if args == nil {
		return ""
	}
	return args
}

func renderOutput(out any) (string, error) {
	switch v := out.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	default:
		raw, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode tool output: %w", err)
		}
		return string(raw), nil
	}
}

// ServeStdio blocks serving MCP requests on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.srv)
}
