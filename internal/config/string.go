package config

import (
	"fmt"

	"github.com/Sey56/Paracore-sub001/internal/fancy"
)

// String returns a pretty-printed tree representation of the config
func (c *Config) String() string {
	return ConfigTree(c)
}

func onOff(b bool) string {
	if b {
		return fancy.ValidText("enabled")
	}
	return fancy.ErrorText("disabled")
}

// ConfigTree renders the config as a tree of sections.
func ConfigTree(cfg *Config) string {
	t := fancy.Tree()
	t.Root(fancy.RootStyle.Render("Paracore Config"))

	logs := fancy.SectionTree("Logging")
	logs.AddChild(fmt.Sprintf("Level: %s", cfg.Logging.Level))
	logs.AddChild(fmt.Sprintf("Format: %s", cfg.Logging.Format))
	logs.AddChild(fmt.Sprintf("Output: %s", fancy.PathText(cfg.Logging.Output)))
	t.Child(logs.Tree())

	exec := fancy.SectionTree("Execution")
	exec.AddChild(fmt.Sprintf("Default timeout: %s", cfg.Execution.DefaultTimeout))
	exec.AddChild(fmt.Sprintf("Transport timeout: %s", cfg.Execution.TransportTimeout))
	if cfg.Execution.MaxTimeoutExtension > 0 {
		exec.AddChild(fmt.Sprintf("Max timeout extension: %s", cfg.Execution.MaxTimeoutExtension))
	}
	t.Child(exec.Tree())

	hostTree := fancy.SectionTree("Host")
	hostTree.AddChild(fmt.Sprintf("Document: %s (%s)", cfg.Host.Title, cfg.Host.DocumentType))
	hostTree.AddChild(fmt.Sprintf("DSN: %s", fancy.PathText(cfg.Host.DSN)))
	t.Child(hostTree.Tree())

	rpc := fancy.SectionTree("RPC")
	rpc.AddChild(fmt.Sprintf("Listen: %s", cfg.RPC.ListenAddr))
	t.Child(rpc.Tree())

	httpTree := fancy.SectionTree("HTTP")
	if cfg.HTTPEnabled() {
		httpTree.AddChild(fmt.Sprintf("Listen: %s", cfg.HTTP.ListenAddr))
		httpTree.AddChild(fmt.Sprintf("MCP: %s", onOff(cfg.HTTP.EnableMCP)))
		httpTree.AddChild(fmt.Sprintf("Metrics: %s", onOff(cfg.HTTP.EnableMetrics)))
	} else {
		httpTree.AddChild(onOff(false))
	}
	t.Child(httpTree.Tree())

	notify := fancy.SectionTree("Notify")
	if cfg.NotifyEnabled() {
		notify.AddChild(fmt.Sprintf("Broker: %s", cfg.Notify.Broker))
		notify.AddChild(fmt.Sprintf("Topic: %s", cfg.Notify.Topic))
		notify.AddChild(fmt.Sprintf("QoS: %d", cfg.Notify.QoS))
	} else {
		notify.AddChild(onOff(false))
	}
	t.Child(notify.Tree())

	eng := fancy.SectionTree("Engine")
	eng.AddChild(fmt.Sprintf("Compile: %s", onOff(cfg.Engine.Compile)))
	eng.AddChild(fmt.Sprintf("Options: %s", onOff(cfg.Engine.Options)))
	t.Child(eng.Tree())

	return t.String()
}
