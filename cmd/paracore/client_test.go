package main

import (
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sey56/Paracore-sub001/internal/execution"
	"github.com/Sey56/Paracore-sub001/internal/script"
	"github.com/Sey56/Paracore-sub001/internal/server/httpapi"
	"github.com/Sey56/Paracore-sub001/internal/server/mcp"
	"github.com/Sey56/Paracore-sub001/internal/server/rpc"
	"github.com/Sey56/Paracore-sub001/internal/service"
	"github.com/Sey56/Paracore-sub001/internal/testutil"
)

// startRPC serves a service backed by a stub dispatcher on a unix socket.
func startRPC(t *testing.T, d *testutil.StubDispatcher) string {
	t.Helper()
	listen, addr := testutil.UnixSocket(t)
	runner, err := rpc.New(service.New(d), rpc.WithListenAddr(listen))
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(t.Context()) }()
	t.Cleanup(func() {
		runner.Stop()
		<-errCh
	})

	require.Eventually(t, func() bool {
		_, err := runApp(t, "client", "--server", addr, "last")
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
	return addr
}

func TestClientCommands(t *testing.T) {
	d := &testutil.StubDispatcher{}
	addr := startRPC(t, d)
	dir := writeScripts(t, map[string]string{"Walls.cs": wallsScript})

	out, err := runApp(t, "client", "--server", addr, "last")
	require.NoError(t, err)
	assert.Contains(t, out, "No executions yet")

	out, err = runApp(t, "client", "--server", addr, "params", "--format", "json", dir)
	require.NoError(t, err)
	var ps []script.Parameter
	require.NoError(t, json.Unmarshal([]byte(out), &ps))
	assert.Len(t, ps, 3)

	out, err = runApp(t, "client", "--server", addr, "exec", "--format", "json", "-p", "Height=4.5", filepath.Join(dir, "Walls.cs"))
	require.NoError(t, err)
	var res execution.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.IsSuccess)
	assert.Equal(t, "Walls", res.ScriptName)

	requests := d.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "cli", requests[0].Source)
	assert.JSONEq(t, `{"Height":4.5}`, string(requests[0].Parameters))

	out, err = runApp(t, "client", "--server", addr, "last", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, res.ExecutionID)
}

func TestClientCommands_FailedExecution(t *testing.T) {
	addr := startRPC(t, &testutil.StubDispatcher{Fail: "boom"})
	dir := writeScripts(t, map[string]string{"Walls.cs": wallsScript})

	out, err := runApp(t, "client", "--server", addr, "exec", dir)
	require.Error(t, err)
	assert.Contains(t, out, "boom")
}

func TestClientTools(t *testing.T) {
	svc := service.New(&testutil.StubDispatcher{})
	routes := httpapi.Handlers(httpapi.RouteConfig{
		MCPServer: mcp.NewServer(svc, "paracore", "test", slog.Default()),
	})
	srv := httptest.NewServer(routes[httpapi.PathMCP])
	t.Cleanup(srv.Close)

	out, err := runApp(t, "client", "tools", "--url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, mcp.ToolExtractParameters)
	assert.Contains(t, out, mcp.ToolExecuteScript)

	args, err := json.Marshal(map[string]string{"source": wallsScript})
	require.NoError(t, err)
	out, err = runApp(t, "client", "tools", "--url", srv.URL, mcp.ToolExtractParameters, string(args))
	require.NoError(t, err)
	assert.Contains(t, out, "Height")
}
