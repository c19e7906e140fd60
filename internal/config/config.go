// Package config loads roster settings from an optional CUE file.
//
// The file is unified with an embedded schema, so a file may set any subset
// of the fields:
//
//	records:    "data/registros.csv"
//	checkpoint: "data/ultimo_id.txt"
//	backend:    "sqlite"
//	database:   "data/roster.db"
//
// Relative paths are resolved against the directory holding the file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

// Backend names.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds resolved roster settings.
type Config struct {
	Records    string `json:"records"`
	Checkpoint string `json:"checkpoint"`
	Backend    string `json:"backend"`
	Database   string `json:"database"`
}

// Error reports an invalid or unreadable config file.
type Error struct {
	Path    string
	Message string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %s", e.Message)
	}
	return fmt.Sprintf("config %s: %s", e.Path, e.Message)
}

// Default returns the schema defaults.
func Default() (*Config, error) {
	return decode(cuecontext.New(), "", nil)
}

// Load reads the CUE file at path and applies it over the defaults.
// An empty path returns the defaults. A path that does not exist is an
// error; callers decide whether a missing file is acceptable.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Path: path, Message: "file not found"}
		}
		return nil, &Error{Path: path, Message: err.Error()}
	}

	cfg, err := decode(cuecontext.New(), path, data)
	if err != nil {
		return nil, err
	}
	cfg.resolve(filepath.Dir(path))
	return cfg, nil
}

func decode(ctx *cue.Context, path string, data []byte) (*Config, error) {
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, &Error{Message: "invalid built-in schema: " + formatCUEError(err)}
	}
	v := schema.LookupPath(cue.ParsePath("#Config"))

	if data != nil {
		user := ctx.CompileBytes(data, cue.Filename(path))
		if err := user.Err(); err != nil {
			return nil, &Error{Path: path, Message: formatCUEError(err)}
		}
		v = v.Unify(user)
	}

	if err := v.Validate(); err != nil {
		return nil, &Error{Path: path, Message: formatCUEError(err)}
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, &Error{Path: path, Message: formatCUEError(err)}
	}
	return &cfg, nil
}

// resolve makes relative paths relative to dir.
func (c *Config) resolve(dir string) {
	for _, p := range []*string{&c.Records, &c.Checkpoint, &c.Database} {
		if !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// formatCUEError flattens a CUE error list into one line per error.
func formatCUEError(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) <= 1 {
		return err.Error()
	}
	msg := errs[0].Error()
	for _, e := range errs[1:] {
		msg += "; " + e.Error()
	}
	return msg
}
