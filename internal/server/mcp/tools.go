// Package mcp exposes the script service as Model Context Protocol tools
// so agents can inspect and run scripts.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sey56/Paracore-sub001/internal/execution"
	"github.com/Sey56/Paracore-sub001/internal/options"
	"github.com/Sey56/Paracore-sub001/internal/script"
	"github.com/Sey56/Paracore-sub001/internal/service"
)

const (
	ToolExtractParameters = "extract_parameters"
	ToolExtractMetadata   = "extract_metadata"
	ToolComputeOptions    = "compute_options"
	ToolExecuteScript     = "execute_script"
	ToolGetLastResult     = "get_last_result"
)

// Service is the part of *service.Service the tools call.
type Service interface {
	ExtractParameters(source string) []script.Parameter
	UnitParameters(files []script.File) []script.Parameter
	ExtractMetadata(source string) script.Metadata
	UnitMetadata(name string, files []script.File) script.Metadata
	ComputeOptions(ctx context.Context, req service.OptionsRequest) options.Result
	Execute(ctx context.Context, req service.ExecuteRequest) *execution.Result
	LastResult() *execution.Result
}

var _ Service = (*service.Service)(nil)

// SourceInput selects a single source text or a multi-file unit.
type SourceInput struct {
	ScriptName string        `json:"scriptName,omitempty" jsonschema:"name of the script unit"`
	Source     string        `json:"source,omitempty" jsonschema:"C# source of a single-file script"`
	Files      []script.File `json:"files,omitempty" jsonschema:"files of a multi-file script unit"`
}

type OptionsInput struct {
	ScriptName    string         `json:"scriptName,omitempty"`
	Files         []script.File  `json:"files" jsonschema:"files of the script unit"`
	ParameterName string         `json:"parameterName" jsonschema:"parameter whose options are requested"`
	CurrentValues map[string]any `json:"currentValues,omitempty" jsonschema:"values currently entered for the other parameters"`
}

type ExecuteInput struct {
	ScriptName string         `json:"scriptName"`
	Files      []script.File  `json:"files" jsonschema:"files of the script unit"`
	Parameters map[string]any `json:"parameters,omitempty" jsonschema:"parameter values keyed by name"`
	ReadOnly   bool           `json:"isReadOnly,omitempty" jsonschema:"skip every model-modifying transaction"`
}

type EmptyInput struct{}

// NewServer builds an MCP server whose tools call svc.
func NewServer(svc Service, name, version string, logger *slog.Logger) *mcpsdk.Server {
	if logger == nil {
		logger = slog.Default().WithGroup("mcp")
	}
	server := mcpsdk.NewServer(&mcpsdk.Implementation{Name: name, Version: version}, nil)
	t := &tools{service: svc, logger: logger}

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        ToolExtractParameters,
		Description: "List the input parameters a script declares, with types, defaults and constraints.",
	}, t.extractParameters)
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        ToolExtractMetadata,
		Description: "Read the descriptive header of a script: name, author, categories and document type.",
	}, t.extractMetadata)
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        ToolComputeOptions,
		Description: "Compute the selectable options or numeric range of one script parameter.",
	}, t.computeOptions)
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        ToolExecuteScript,
		Description: "Run a script against the open model and return its output.",
	}, t.executeScript)
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        ToolGetLastResult,
		Description: "Return the result of the most recent model-modifying execution.",
	}, t.lastResult)
	return server
}

type tools struct {
	service Service
	logger  *slog.Logger
}

func (t *tools) extractParameters(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	in SourceInput,
) (*mcpsdk.CallToolResult, any, error) {
	if len(in.Files) > 0 {
		return jsonResult(t.service.UnitParameters(in.Files))
	}
	return jsonResult(t.service.ExtractParameters(in.Source))
}

func (t *tools) extractMetadata(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	in SourceInput,
) (*mcpsdk.CallToolResult, any, error) {
	if len(in.Files) > 0 {
		return jsonResult(t.service.UnitMetadata(in.ScriptName, in.Files))
	}
	return jsonResult(t.service.ExtractMetadata(in.Source))
}

func (t *tools) computeOptions(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	in OptionsInput,
) (*mcpsdk.CallToolResult, any, error) {
	values, err := marshalValues(in.CurrentValues)
	if err != nil {
		return errorResult(err), nil, nil
	}
	res := t.service.ComputeOptions(ctx, service.OptionsRequest{
		ScriptName:    in.ScriptName,
		Files:         in.Files,
		ParameterName: in.ParameterName,
		Values:        values,
	})
	out, _, err := jsonResult(res)
	if err != nil {
		return nil, nil, err
	}
	out.IsError = !res.IsSuccess
	return out, nil, nil
}

func (t *tools) executeScript(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	in ExecuteInput,
) (*mcpsdk.CallToolResult, any, error) {
	params, err := marshalValues(in.Parameters)
	if err != nil {
		return errorResult(err), nil, nil
	}
	t.logger.Info("Executing script for agent", "script", in.ScriptName, "read_only", in.ReadOnly)
	res := t.service.Execute(ctx, service.ExecuteRequest{
		ScriptName: in.ScriptName,
		Files:      in.Files,
		Parameters: params,
		ReadOnly:   in.ReadOnly,
	})
	out, _, err := jsonResult(res)
	if err != nil {
		return nil, nil, err
	}
	out.IsError = !res.IsSuccess
	return out, nil, nil
}

func (t *tools) lastResult(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	_ EmptyInput,
) (*mcpsdk.CallToolResult, any, error) {
	res := t.service.LastResult()
	if res == nil {
		return textResult("no script has been executed yet"), nil, nil
	}
	return jsonResult(res)
}

func marshalValues(values map[string]any) (json.RawMessage, error) {
	if len(values) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("invalid parameter values: %w", err)
	}
	return data, nil
}

func jsonResult(v any) (*mcpsdk.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return textResult(string(data)), nil, nil
}

func textResult(text string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
	}
}

func errorResult(err error) *mcpsdk.CallToolResult {
	res := textResult("Error: " + err.Error())
	res.IsError = true
	return res
}
