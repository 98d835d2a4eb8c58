package backend

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// load dbflow daemon config from a file.
//
// args:
//   - filepath: filepath refers a config file.
//
// returns *DbflowConfig, error:
//
//	When loading success, returns `(*DbflowConfig, nil)`.
//	Otherwise, returns `(nil, error)`.
func LoadDbflowConfig(filepath string) (*DbflowConfig, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	return Unmarshal(content)
}

func Unmarshal(conf []byte) (out *DbflowConfig, err error) {
	var _out *DbflowConfigMarshall
	if err := yaml.Unmarshal(conf, &_out); err != nil {
		return nil, err
	}
	return TrySeal(_out), nil
}

type Marshalled[S any] interface {
	trySeal(string) S
}

// seal marshalled object.
//
// this function CAN CAUSE PANIC if misconfiguration is found.
//
// All types named `pkg/configs/backend.XxxMarshall` are `Marshalled[*Xxx]` .
func TrySeal[S any](conf Marshalled[S]) S {
	return conf.trySeal("(root)")
}

// This type is marshalling value and mutable.
// Consider to use immutable version, `DbflowConfig`.
// You can get `DbflowConfig` instance with `DbflowConfigMarshall.TrySeal()`
type DbflowConfigMarshall struct {
	Port             int32                `yaml:"port"`
	Database         string               `yaml:"database"`
	SchemaRepository string               `yaml:"schemaRepository,omitempty"`
	Mission          string               `yaml:"mission,omitempty"`
	Loops            *LoopsConfigMarshall `yaml:"loops,omitempty"`
}

var _ Marshalled[*DbflowConfig] = &DbflowConfigMarshall{}

func (c *DbflowConfigMarshall) trySeal(path string) *DbflowConfig {
	loops := c.Loops
	if loops == nil {
		loops = &LoopsConfigMarshall{}
	}
	return &DbflowConfig{
		port:             c.Port,
		database:         required(c.Database, path+".database"),
		schemaRepository: c.SchemaRepository,
		mission:          c.Mission,
		loops:            loops.trySeal(path + ".loops"),
	}
}

type LoopsConfigMarshall struct {
	Ingest       string `yaml:"ingest,omitempty"`
	Build        string `yaml:"build,omitempty"`
	Housekeeping string `yaml:"housekeeping,omitempty"`
}

func (l *LoopsConfigMarshall) trySeal(path string) *LoopsConfig {
	return &LoopsConfig{
		ingest:       interval(l.Ingest, 30*time.Second, path+".ingest"),
		build:        interval(l.Build, 10*time.Second, path+".build"),
		housekeeping: interval(l.Housekeeping, 10*time.Minute, path+".housekeeping"),
	}
}

func interval(v string, fallback time.Duration, path string) time.Duration {
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("%s can not be parsed: %w", path, err))
	}
	if d <= 0 {
		panic(path + " should be positive")
	}
	return d
}

func required[T comparable](v T, path string) T {
	if v == *new(T) {
		panic(path + " is required")
	}
	return v
}
