package rpc

import (
	"github.com/Sey56/Paracore-sub001/internal/execution"
	"github.com/Sey56/Paracore-sub001/internal/options"
	"github.com/Sey56/Paracore-sub001/internal/script"
	"github.com/Sey56/Paracore-sub001/internal/script/rules"
	"github.com/Sey56/Paracore-sub001/internal/service"
)

// SourceRequest carries either a single source text or a multi-file unit.
// Files take precedence when both are set.
type SourceRequest struct {
	ScriptName string        `json:"scriptName,omitempty"`
	Source     string        `json:"source,omitempty"`
	Files      []script.File `json:"files,omitempty"`
}

type ParametersResponse struct {
	Parameters []script.Parameter `json:"parameters"`
}

type MetadataResponse struct {
	Metadata script.Metadata `json:"metadata"`
}

type FilesRequest struct {
	Files []script.File `json:"files"`
}

type TopLevelResponse struct {
	File  script.File `json:"file"`
	Found bool        `json:"found"`
}

type CombineResponse struct {
	Source string `json:"source"`
}

type RulesRequest struct {
	Files  []script.File  `json:"files"`
	Values map[string]any `json:"values,omitempty"`
}

type RulesResponse struct {
	States []rules.State `json:"states"`
}

type (
	OptionsRequest  = service.OptionsRequest
	OptionsResponse = options.Result
	ExecuteRequest  = service.ExecuteRequest
	ExecuteResponse = execution.Result
)

type Empty struct{}

type LastResultResponse struct {
	Result *execution.Result `json:"result,omitempty"`
	Found  bool              `json:"found"`
}
