// Package notify republishes committed model changes to an MQTT broker so
// other tools can follow what scripts did to the document.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gofrs/uuid/v5"
	"github.com/robbyt/go-supervisor/supervisor"

	"github.com/Sey56/Paracore-sub001/internal/execution"
	"github.com/Sey56/Paracore-sub001/internal/server/finitestate"
)

const (
	DefaultTopic          = "paracore/changes"
	DefaultConnectTimeout = 5 * time.Second
)

var (
	ErrNoBroker     = errors.New("MQTT broker URL cannot be empty")
	ErrNotConnected = errors.New("change publisher is not connected")
)

var (
	_ supervisor.Runnable       = (*Publisher)(nil)
	_ supervisor.Stateable      = (*Publisher)(nil)
	_ execution.ChangePublisher = (*Publisher)(nil)
)

// Publisher sends change summaries to an MQTT topic. It connects when Run
// starts and disconnects when Run returns.
type Publisher struct {
	logger         *slog.Logger
	fsm            finitestate.Machine
	client         mqtt.Client
	broker         string
	clientID       string
	topic          string
	qos            byte
	connectTimeout time.Duration

	runCtx    context.Context
	runCancel context.CancelFunc
}

// NewPublisher creates a publisher for broker, such as "tcp://localhost:1883".
func NewPublisher(broker string, opts ...Option) (*Publisher, error) {
	if broker == "" {
		return nil, ErrNoBroker
	}
	p := &Publisher{
		logger:         slog.Default().WithGroup("notify.Publisher"),
		broker:         broker,
		clientID:       "paracore-" + uuid.Must(uuid.NewV6()).String(),
		topic:          DefaultTopic,
		qos:            1,
		connectTimeout: DefaultConnectTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}

	fsm, err := finitestate.New(p.logger.WithGroup("fsm").Handler())
	if err != nil {
		return nil, fmt.Errorf("failed to create state machine: %w", err)
	}
	p.fsm = fsm

	clientOpts := mqtt.NewClientOptions().
		AddBroker(p.broker).
		SetClientID(p.clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(p.connectTimeout)
	p.client = mqtt.NewClient(clientOpts)
	p.runCtx, p.runCancel = context.WithCancel(context.Background())
	return p, nil
}

func (p *Publisher) String() string {
	return "notify.Publisher"
}

// Run connects to the broker and blocks until ctx is canceled or Stop is called.
func (p *Publisher) Run(ctx context.Context) error {
	if err := p.fsm.Transition(finitestate.StatusBooting); err != nil {
		return fmt.Errorf("failed to transition to booting state: %w", err)
	}

	token := p.client.Connect()
	if !token.WaitTimeout(p.connectTimeout) {
		p.setError()
		return fmt.Errorf("timed out connecting to MQTT broker %s", p.broker)
	}
	if err := token.Error(); err != nil {
		p.setError()
		return fmt.Errorf("failed to connect to MQTT broker %s: %w", p.broker, err)
	}

	if err := p.fsm.Transition(finitestate.StatusRunning); err != nil {
		return fmt.Errorf("failed to transition to running state: %w", err)
	}
	p.logger.Info("Connected to MQTT broker", "broker", p.broker, "topic", p.topic)

	select {
	case <-ctx.Done():
	case <-p.runCtx.Done():
	}

	if p.fsm.GetState() != finitestate.StatusStopping {
		if err := p.fsm.Transition(finitestate.StatusStopping); err != nil {
			p.logger.Error("Failed to transition to stopping state", "error", err)
		}
	}
	p.client.Disconnect(250)
	if err := p.fsm.Transition(finitestate.StatusStopped); err != nil {
		return fmt.Errorf("failed to transition to stopped state: %w", err)
	}
	p.logger.Debug("Disconnected from MQTT broker")
	return nil
}

// Stop makes Run disconnect and return.
func (p *Publisher) Stop() {
	if err := p.fsm.TransitionIfCurrentState(finitestate.StatusRunning, finitestate.StatusStopping); err != nil {
		p.logger.Debug("Stop called outside the running state", "state", p.fsm.GetState())
	}
	p.runCancel()
}

func (p *Publisher) setError() {
	if err := p.fsm.SetState(finitestate.StatusError); err != nil {
		p.logger.Error("Failed to transition to error state", "error", err)
	}
}

func (p *Publisher) GetState() string {
	return p.fsm.GetState()
}

func (p *Publisher) GetStateChan(ctx context.Context) <-chan string {
	return p.fsm.GetStateChan(ctx)
}

func (p *Publisher) IsRunning() bool {
	return p.fsm.GetState() == finitestate.StatusRunning
}

// PublishChange sends summary as JSON and waits for the broker to accept it.
func (p *Publisher) PublishChange(ctx context.Context, summary execution.ChangeSummary) error {
	if !p.IsRunning() || !p.client.IsConnectionOpen() {
		return ErrNotConnected
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode change summary: %w", err)
	}

	token := p.client.Publish(p.topic, p.qos, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish change summary: %w", err)
	}
	p.logger.Debug("Published change summary",
		"execution_id", summary.ExecutionID, "transaction", summary.Transaction, "added", len(summary.Added))
	return nil
}
