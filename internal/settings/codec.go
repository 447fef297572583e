package settings

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Codec encodes the settings blob
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type codec struct {
	name      string
	marshal   func(any) ([]byte, error)
	unmarshal func([]byte, any) error
}

func (c codec) Name() string                       { return c.name }
func (c codec) Marshal(v any) ([]byte, error)      { return c.marshal(v) }
func (c codec) Unmarshal(data []byte, v any) error { return c.unmarshal(data, v) }

var codecs = map[string]Codec{
	"toml": codec{"toml", toml.Marshal, toml.Unmarshal},
	"yaml": codec{"yaml", yaml.Marshal, yaml.Unmarshal},
	"json": codec{"json", func(v any) ([]byte, error) {
		return json.MarshalIndent(v, "", "  ")
	}, json.Unmarshal},
}

// CodecFor returns the codec for a format name ("toml", "yaml"/"yml", "json")
func CodecFor(format string) (Codec, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	if f == "yml" {
		f = "yaml"
	}
	if f == "" {
		f = "toml"
	}
	c, ok := codecs[f]
	if !ok {
		return nil, fmt.Errorf("unknown settings format %q", format)
	}
	return c, nil
}
