package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"google.golang.org/grpc"
)

// ErrEmptySocketPath is returned for a "unix:" address without a path.
var ErrEmptySocketPath = errors.New("invalid unix socket address: path cannot be empty after 'unix:' prefix")

// GRPCServer is a gRPC server that can be gracefully stopped.
type GRPCServer interface {
	GracefulStop()
}

// StartGRPCServerFunc is the function signature type for starting a gRPC server
type StartGRPCServerFunc func(
	logger *slog.Logger,
	listenAddr string,
	server ScriptServiceServer,
) (GRPCServer, error)

// DefaultStartGRPCServer parses the listen address, removes a stale Unix
// socket if necessary, listens, and serves ScriptService in the background.
func DefaultStartGRPCServer(
	logger *slog.Logger,
	listenAddr string,
	server ScriptServiceServer,
) (GRPCServer, error) {
	logger.Debug("Starting gRPC server", "requested_address", listenAddr)

	network, address, err := parseListenAddr(listenAddr)
	if err != nil {
		logger.Error("Failed to parse listen address", "address", listenAddr, "error", err)
		return nil, fmt.Errorf("parsing listen address %q: %w", listenAddr, err)
	}

	if network == "unix" {
		if err := cleanupUnixSocket(address, logger); err != nil {
			logger.Error(
				"Failed to clean up unix socket before listening",
				"path", address,
				"error", err,
			)
			return nil, fmt.Errorf("pre-listen cleanup of unix socket %q failed: %w", address, err)
		}
	}

	lis, err := net.Listen(network, address)
	if err != nil {
		logger.Error("Failed to listen", "network", network, "address", address, "error", err)
		return nil, fmt.Errorf("listening on %s://%s: %w", network, address, err)
	}

	actualAddr := lis.Addr()
	logger.Debug(
		"Successfully listening",
		"network", actualAddr.Network(),
		"address", actualAddr.String(),
	)

	grpcServer := grpc.NewServer()
	RegisterScriptServiceServer(grpcServer, server)

	startupErr := make(chan error, 1)
	go func() {
		logger.Info("gRPC server starting...", "address", actualAddr.String())
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Error("gRPC server encountered an error", "error", err)
			startupErr <- fmt.Errorf("gRPC server error: %w", err)
			return
		}
		logger.Debug("gRPC server stopped gracefully")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	select {
	case err := <-startupErr:
		logger.Error("gRPC server failed to start", "error", err)
		if closeErr := lis.Close(); closeErr != nil {
			logger.Error("Failed to close listener after gRPC server error", "error", closeErr)
		}
		return nil, fmt.Errorf("gRPC server startup error: %w", err)
	case <-ctx.Done():
	}

	return grpcServer, nil
}

// parseListenAddr splits a listen string into network and address.
// "unix:/path/to/socket.sock" selects a Unix socket; anything else is TCP.
func parseListenAddr(listenAddr string) (network string, address string, err error) {
	if strings.HasPrefix(listenAddr, "unix:") {
		address = strings.TrimPrefix(listenAddr, "unix:")
		if address == "" {
			return "", "", ErrEmptySocketPath
		}
		return "unix", address, nil
	}
	return "tcp", listenAddr, nil
}

// cleanupUnixSocket removes a stale socket file left by a previous run.
func cleanupUnixSocket(socketPath string, logger *slog.Logger) error {
	if _, err := os.Lstat(socketPath); err == nil {
		logger.Warn("Removing existing unix socket", "path", socketPath)
		if removeErr := os.Remove(socketPath); removeErr != nil {
			if os.IsExist(removeErr) || os.IsPermission(removeErr) {
				return fmt.Errorf(
					"failed to remove existing file/socket (possible permission issue or directory conflict) at %q: %w",
					socketPath,
					removeErr,
				)
			}
			return fmt.Errorf("failed to remove existing unix socket %q: %w", socketPath, removeErr)
		}
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat potential unix socket %q: %w", socketPath, err)
	}
	logger.Debug("No existing unix socket found, no cleanup needed", "path", socketPath)
	return nil
}
