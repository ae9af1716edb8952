package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sey56/Paracore-sub001/internal/engine"
	"github.com/Sey56/Paracore-sub001/internal/execution"
	"github.com/Sey56/Paracore-sub001/internal/execution/dispatcher"
	"github.com/Sey56/Paracore-sub001/internal/host/hostthread"
	"github.com/Sey56/Paracore-sub001/internal/host/sqlhost"
	"github.com/Sey56/Paracore-sub001/internal/options"
	"github.com/Sey56/Paracore-sub001/internal/script"
)

const paramsFile = `/*
 * Description: Creates a row of walls
 * Author: Jane Doe
 * Categories: Architecture, Walls
 * DocumentType: Project
 */
public class Params
{
    [Options("Fast", "Slow")]
    public string Mode { get; set; } = "Fast";

    [VisibleWhen("Mode", "Slow")]
    public int Delay { get; set; } = 5;
}
`

const mainFile = `using System;

Console.WriteLine("hi");
`

func unitFiles() []script.File {
	return []script.File{
		{Name: "Params.cs", Content: paramsFile},
		{Name: "Main.cs", Content: mainFile},
	}
}

func newService(t *testing.T, opts ...Option) (*Service, *engine.Registry) {
	t.Helper()
	doc, err := sqlhost.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, doc.Close()) })

	thread, err := hostthread.NewRunner()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- thread.Run(ctx) }()
	require.Eventually(t, thread.IsRunning, time.Second, 5*time.Millisecond)
	t.Cleanup(func() {
		cancel()
		<-errCh
	})

	registry := engine.NewRegistry()
	d := dispatcher.New(thread, doc, dispatcher.WithCompiler(registry))
	opts = append([]Option{
		WithPrograms(registry),
		WithOptionsEngine(options.New(d, options.WithCompiler(registry))),
	}, opts...)
	return New(d, opts...), registry
}

func TestService_Extraction(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)

	ps := svc.UnitParameters(unitFiles())
	require.Len(t, ps, 2)
	assert.Equal(t, "Mode", ps[0].Name)

	entry := svc.IdentifyTopLevelScript(unitFiles())
	require.NotNil(t, entry)
	assert.Equal(t, "Main.cs", entry.Name)

	combined := svc.Combine(unitFiles())
	assert.Contains(t, combined, "using System;")
	assert.Contains(t, combined, "public class Params")

	md := svc.ExtractMetadata(paramsFile)
	assert.Equal(t, "Jane Doe", md.Author)
	assert.Equal(t, script.DocumentProject, md.DocumentType)

	states := svc.EvaluateRules(unitFiles(), map[string]any{"Mode": "Slow"})
	require.Len(t, states, 2)
	assert.True(t, states[1].Visible)
}

func TestService_ExecuteRegisteredProgram(t *testing.T) {
	t.Parallel()
	svc, registry := newService(t)
	registry.Register("walls", engine.ProgramFunc(func(_ context.Context, x *execution.Context) error {
		mode, _ := x.Param("Mode")
		x.Printf("mode=%v\n", mode)
		return nil
	}))

	res := svc.Execute(t.Context(), ExecuteRequest{
		ScriptName: "walls",
		Files:      unitFiles(),
		Parameters: []byte(`[{"name":"Mode","value":"Slow"}]`),
	})
	require.True(t, res.IsSuccess, res.ErrorMessage)
	assert.Equal(t, "mode=Slow\n", res.Output)
	assert.Same(t, res, svc.LastResult())

	md := svc.UnitMetadata("walls", unitFiles())
	assert.Equal(t, "walls", md.Name)
	assert.NotEmpty(t, md.LastRun)

	res = svc.Execute(t.Context(), ExecuteRequest{Program: "walls"})
	require.True(t, res.IsSuccess, res.ErrorMessage)
	assert.Equal(t, "walls", res.ScriptName)
}

func TestService_ExecuteUnknownProgram(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)
	res := svc.Execute(t.Context(), ExecuteRequest{Program: "missing"})
	assert.False(t, res.IsSuccess)
	require.ErrorIs(t, res.Err, ErrUnknownProgram)
}

type stalledDispatcher struct{}

func (stalledDispatcher) Execute(ctx context.Context, _ dispatcher.Request) *execution.Result {
	<-ctx.Done()
	return execution.NewFailure("x", "", ctx.Err())
}

func (stalledDispatcher) LastResult() *execution.Result { return nil }

func TestService_TransportTimeout(t *testing.T) {
	t.Parallel()
	svc := New(stalledDispatcher{}, WithTransportTimeout(30*time.Millisecond))

	start := time.Now()
	res := svc.Execute(t.Context(), ExecuteRequest{ScriptName: "stuck"})
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, res.IsSuccess)
	require.ErrorIs(t, res.Err, ErrTransportTimeout)
	assert.Equal(t, "stuck", res.ScriptName)
}

func TestService_ComputeOptions(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t)

	res := svc.ComputeOptions(t.Context(), OptionsRequest{
		ScriptName:    "walls",
		Files:         unitFiles(),
		ParameterName: "Mode",
	})
	require.True(t, res.IsSuccess, res.ErrorMessage)
	assert.Equal(t, []string{"Fast", "Slow"}, res.Options)

	res = New(stalledDispatcher{}).ComputeOptions(t.Context(), OptionsRequest{ParameterName: "Mode"})
	assert.False(t, res.IsSuccess)
}
