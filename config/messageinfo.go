package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sabouaram/tcpcomm/protocol"
)

// messageInfoFile is the on-disk shape of a message-info table: a list of
// entries matching the arguments to Builder.MessageInfo, so deployments
// can describe their protocol's reply policy declaratively instead of a
// chain of Go calls. Core dispatcher configuration still has "no
// persisted state" per spec §6; this is strictly an input document for
// the Builder, read once at startup.
type messageInfoFile struct {
	Messages []struct {
		Name           string   `yaml:"name"`
		NeedsReply     bool     `yaml:"needs_reply"`
		TimeoutMS      int      `yaml:"timeout_ms"`
		AllowedAnswers []string `yaml:"allowed_answers"`
		Priority       int32    `yaml:"priority"`
	} `yaml:"messages"`
}

// LoadMessageInfoYAML reads a YAML message-info table from path and
// registers every entry on the Builder via MessageInfo.
func (b *Builder) LoadMessageInfoYAML(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read message-info file: %w", err)
	}

	var doc messageInfoFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("config: parse message-info file: %w", err)
	}

	for _, m := range doc.Messages {
		b.MessageInfo(m.Name, m.NeedsReply, time.Duration(m.TimeoutMS)*time.Millisecond, m.AllowedAnswers, protocol.Priority(m.Priority))
	}
	return nil
}
