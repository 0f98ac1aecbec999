// Package config loads runtime-wide defaults (dev mode, recursion limit,
// devtools binding) from a CUE file, validating them against an embedded
// schema before they ever reach the runtime.
package config

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// Config is the decoded, schema-validated set of runtime defaults.
type Config struct {
	DevMode        bool   `json:"devMode"`
	RecursionLimit int    `json:"recursionLimit"`
	DevtoolsAddr   string `json:"devtoolsAddr"`
	SessionLogPath string `json:"sessionLogPath"`
}

// schema constrains the shape and bounds of every field Load will decode,
// the way brutalist's cli.LoadSpecs validates user CUE against its concept
// schema before compiling it into its own IR.
const schema = `
devMode: bool | *false
recursionLimit: int & >0 & <=10000 | *100
devtoolsAddr: string | *":8787"
sessionLogPath: string | *"reactor-devtools.db"
`

// Default returns the schema's default values with no user file unified
// in, for callers that want sane defaults without touching the filesystem.
func Default() (*Config, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schema)
	return decode(v)
}

// Load unifies the CUE file at path with the embedded schema and decodes
// the result. A missing path is not an error: Load falls back to Default.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default()
	}

	ctx := cuecontext.New()
	schemaVal := ctx.CompileString(schema)

	instances := load.Instances([]string{path}, nil)
	if len(instances) == 0 {
		return nil, fmt.Errorf("config: no CUE instance loaded from %s", path)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("config: loading %s: %w", path, inst.Err)
	}

	userVal := ctx.BuildInstance(inst)
	if err := userVal.Err(); err != nil {
		return nil, fmt.Errorf("config: building %s: %w", path, err)
	}

	merged := schemaVal.Unify(userVal)
	return decode(merged)
}

func decode(v cue.Value) (*Config, error) {
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	var c Config
	if err := v.Decode(&c); err != nil {
		return nil, fmt.Errorf("config: decode failed: %w", err)
	}
	return &c, nil
}
