package mission

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the operator description of a mission: the entity tree and the
// processes working on it, parsed from a sectioned file.
//
// Sections are `[mission]`, `[satellite]`, `[instrument]`, one or more
// `[product_<tag>]` and one or more `[process_<tag>]`. Processes reference
// products by their section tag. Unknown keys are dropped silently; missing
// required keys fail naming the section and the key.
type Config struct {
	Mission    MissionSection
	Satellite  SatelliteSection
	Instrument InstrumentSection

	// keyed by section tag ("product_<tag>").
	Products map[string]ProductSection

	// keyed by section tag ("process_<tag>").
	Processes map[string]ProcessSection
}

type MissionSection struct {
	Name        string `toml:"mission_name"`
	Rootdir     string `toml:"rootdir"`
	IncomingDir string `toml:"incoming_dir"`
}

type SatelliteSection struct {
	Name string `toml:"satellite_name"`
}

type InstrumentSection struct {
	Name string `toml:"instrument_name"`
}

type ProductSection struct {
	Name         string  `toml:"product_name"`
	RelativePath string  `toml:"relative_path"`
	Format       string  `toml:"format"`
	Level        float64 `toml:"level"`
	Description  string  `toml:"product_description"`

	InspectorFilename        string `toml:"inspector_filename"`
	InspectorRelativePath    string `toml:"inspector_relative_path"`
	InspectorDescription     string `toml:"inspector_description"`
	InspectorVersion         string `toml:"inspector_version"`
	InspectorOutputInterface int    `toml:"inspector_output_interface"`
	InspectorActive          bool   `toml:"inspector_active"`
	InspectorDateWritten     string `toml:"inspector_date_written"`
	InspectorArguments       string `toml:"inspector_arguments"`
}

type ProcessSection struct {
	Name           string `toml:"process_name"`
	OutputProduct  string `toml:"output_product"`
	OutputTimebase string `toml:"output_timebase"`
	ExtraParams    string `toml:"extra_params"`

	CodeFilename        string `toml:"code_filename"`
	CodeRelativePath    string `toml:"code_relative_path"`
	CodeVersion         string `toml:"code_version"`
	CodeStartDate       string `toml:"code_start_date"`
	CodeStopDate        string `toml:"code_stop_date"`
	CodeDescription     string `toml:"code_description"`
	CodeOutputInterface int    `toml:"code_output_interface"`
	CodeActive          bool   `toml:"code_active"`
	CodeDateWritten     string `toml:"code_date_written"`
	CodeArguments       string `toml:"code_arguments"`
	CodeCpu             int    `toml:"code_cpu"`
	CodeRam             int    `toml:"code_ram"`

	// parsed from required_inputN / optional_inputN keys, N ascending.
	Inputs []InputRef `toml:"-"`
}

// InputRef binds an input product (by section tag) to a process.
type InputRef struct {
	ProductTag string
	Optional   bool
	Yesterday  int
	Tomorrow   int
}

type ConfigError struct {
	Section string
	Key     string
	Reason  string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("section [%s], key %s: %s", e.Section, e.Key, e.Reason)
}

func missingKey(section, key string) error {
	return ConfigError{Section: section, Key: key, Reason: "required"}
}

// Load reads and validates a mission config file.
func Load(filepath string) (*Config, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	return Parse(string(content))
}

func Parse(content string) (*Config, error) {
	raw := map[string]toml.Primitive{}
	md, err := toml.Decode(content, &raw)
	if err != nil {
		return nil, err
	}

	conf := &Config{
		Products:  map[string]ProductSection{},
		Processes: map[string]ProcessSection{},
	}

	for _, section := range []string{"mission", "satellite", "instrument"} {
		if _, ok := raw[section]; !ok {
			return nil, ConfigError{Section: section, Reason: "section is required"}
		}
	}

	if err := md.PrimitiveDecode(raw["mission"], &conf.Mission); err != nil {
		return nil, err
	}
	if err := md.PrimitiveDecode(raw["satellite"], &conf.Satellite); err != nil {
		return nil, err
	}
	if err := md.PrimitiveDecode(raw["instrument"], &conf.Instrument); err != nil {
		return nil, err
	}

	for name, prim := range raw {
		switch {
		case strings.HasPrefix(name, "product_"):
			var p ProductSection
			if err := md.PrimitiveDecode(prim, &p); err != nil {
				return nil, err
			}
			conf.Products[name] = p

		case strings.HasPrefix(name, "process_"):
			var p ProcessSection
			if err := md.PrimitiveDecode(prim, &p); err != nil {
				return nil, err
			}
			inputs, err := parseInputs(name, prim, &md)
			if err != nil {
				return nil, err
			}
			p.Inputs = inputs
			conf.Processes[name] = p
		}
	}

	if len(conf.Products) == 0 {
		return nil, ConfigError{Section: "product_*", Reason: "at least one product section is required"}
	}
	if len(conf.Processes) == 0 {
		return nil, ConfigError{Section: "process_*", Reason: "at least one process section is required"}
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// parseInputs collects required_inputN / optional_inputN keys of a process
// section, N ascending.
//
// A value is either the product tag, or an inline table
// `{ product = "product_x", yesterday = 1, tomorrow = 0 }`.
func parseInputs(section string, prim toml.Primitive, md *toml.MetaData) ([]InputRef, error) {
	kv := map[string]interface{}{}
	if err := md.PrimitiveDecode(prim, &kv); err != nil {
		return nil, err
	}

	keys := []string{}
	for key := range kv {
		if strings.HasPrefix(key, "required_input") || strings.HasPrefix(key, "optional_input") {
			keys = append(keys, key)
		}
	}
	// "..._input10" comes after "..._input2"
	sort.Slice(keys, func(i, j int) bool {
		ni, nj := inputOrdinal(keys[i]), inputOrdinal(keys[j])
		if ni != nj {
			return ni < nj
		}
		return keys[i] < keys[j]
	})

	inputs := []InputRef{}
	for _, key := range keys {
		ref := InputRef{Optional: strings.HasPrefix(key, "optional_input")}

		switch v := kv[key].(type) {
		case string:
			ref.ProductTag = v
		case map[string]interface{}:
			tag, ok := v["product"].(string)
			if !ok {
				return nil, ConfigError{
					Section: section, Key: key, Reason: "product is required",
				}
			}
			ref.ProductTag = tag
			if y, ok := v["yesterday"].(int64); ok {
				ref.Yesterday = int(y)
			}
			if t, ok := v["tomorrow"].(int64); ok {
				ref.Tomorrow = int(t)
			}
		default:
			return nil, ConfigError{
				Section: section, Key: key,
				Reason: fmt.Sprintf("unsupported value type %T", kv[key]),
			}
		}

		if ref.Yesterday < 0 || ref.Tomorrow < 0 {
			return nil, ConfigError{
				Section: section, Key: key, Reason: "yesterday/tomorrow should not be negative",
			}
		}
		inputs = append(inputs, ref)
	}
	return inputs, nil
}

func inputOrdinal(key string) int {
	n := 0
	for _, r := range key[strings.Index(key, "_input")+len("_input"):] {
		if r < '0' || '9' < r {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func (c *Config) validate() error {
	if c.Mission.Name == "" {
		return missingKey("mission", "mission_name")
	}
	if c.Mission.Rootdir == "" {
		return missingKey("mission", "rootdir")
	}
	if c.Mission.IncomingDir == "" {
		return missingKey("mission", "incoming_dir")
	}
	if c.Satellite.Name == "" {
		return missingKey("satellite", "satellite_name")
	}
	if c.Instrument.Name == "" {
		return missingKey("instrument", "instrument_name")
	}

	for tag, p := range c.Products {
		if p.Name == "" {
			return missingKey(tag, "product_name")
		}
		if p.RelativePath == "" {
			return missingKey(tag, "relative_path")
		}
		if p.Format == "" {
			return missingKey(tag, "format")
		}
		if p.InspectorFilename != "" && p.InspectorVersion == "" {
			return missingKey(tag, "inspector_version")
		}
	}

	for tag, p := range c.Processes {
		if p.Name == "" {
			return missingKey(tag, "process_name")
		}
		if p.OutputProduct == "" {
			return missingKey(tag, "output_product")
		}
		if p.OutputTimebase == "" {
			return missingKey(tag, "output_timebase")
		}
		if _, ok := c.Products[p.OutputProduct]; !ok {
			return ConfigError{
				Section: tag, Key: "output_product",
				Reason: fmt.Sprintf("unknown product section %q", p.OutputProduct),
			}
		}
		if p.CodeFilename == "" {
			return missingKey(tag, "code_filename")
		}
		if p.CodeRelativePath == "" {
			return missingKey(tag, "code_relative_path")
		}
		if p.CodeVersion == "" {
			return missingKey(tag, "code_version")
		}
		if p.CodeStartDate == "" {
			return missingKey(tag, "code_start_date")
		}
		if p.CodeStopDate == "" {
			return missingKey(tag, "code_stop_date")
		}
		for _, in := range p.Inputs {
			if _, ok := c.Products[in.ProductTag]; !ok {
				return ConfigError{
					Section: tag, Key: "inputs",
					Reason: fmt.Sprintf("unknown product section %q", in.ProductTag),
				}
			}
		}
	}

	return nil
}
