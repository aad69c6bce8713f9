// Package persona loads the sales personas: system prompt, declared tools,
// tool-result texts and fallback replies, keyed by persona id.
//
// Built-in personas are embedded from prompts/*.toml. A directory of TOML
// files with the same layout can override or add personas at runtime.
package persona

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// Built-in persona ids.
const (
	MondayWorkflow = "monday-workflow"
	MondayItem     = "monday-item"
	TrelloBoard    = "trello-board"
	TrelloCall     = "trello-call"
)

// Boards a persona can drive.
const (
	BoardMonday = "monday"
	BoardTrello = "trello"
)

//go:embed prompts/*.toml
var embedded embed.FS

var (
	ErrUnknownPersona = errors.New("unknown persona")
	ErrInvalidPersona = errors.New("invalid persona")
)

// Persona is one sales persona definition.
type Persona struct {
	ID           string            `toml:"id"`
	Title        string            `toml:"title"`
	Board        string            `toml:"board"`
	Tools        []string          `toml:"tools"`
	StartMessage string            `toml:"start_message,omitempty"`
	DefaultReply string            `toml:"default_reply"`
	Prompt       string            `toml:"prompt"`
	Results      map[string]string `toml:"results"`
	Fallbacks    map[string]string `toml:"fallbacks"`
}

// Result renders the tool-result text for a tool. Placeholders are written
// as {key} and replaced from vars; unknown placeholders are left as is.
func (p *Persona) Result(tool string, vars map[string]string) string {
	return render(p.Results[tool], vars)
}

// Fallback returns the reply used when the follow-up completion for a tool
// comes back empty.
func (p *Persona) Fallback(tool string) string {
	return p.Fallbacks[tool]
}

func render(template string, vars map[string]string) string {
	if template == "" || len(vars) == 0 {
		return template
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func (p *Persona) validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidPersona)
	}
	if strings.TrimSpace(p.Prompt) == "" {
		return fmt.Errorf("%w: %s has an empty prompt", ErrInvalidPersona, p.ID)
	}
	if strings.TrimSpace(p.DefaultReply) == "" {
		return fmt.Errorf("%w: %s has an empty default_reply", ErrInvalidPersona, p.ID)
	}
	if p.Board != BoardMonday && p.Board != BoardTrello {
		return fmt.Errorf("%w: %s has unknown board %q", ErrInvalidPersona, p.ID, p.Board)
	}
	for _, name := range p.Tools {
		if _, ok := Definition(name); !ok {
			return fmt.Errorf("%w: %s declares unknown tool %q", ErrInvalidPersona, p.ID, name)
		}
	}
	return nil
}

// Catalog holds the loaded personas.
type Catalog struct {
	personas map[string]*Persona
}

// Get returns the persona with the given id.
func (c *Catalog) Get(id string) (*Persona, error) {
	p, ok := c.personas[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPersona, id)
	}
	return p, nil
}

// IDs returns the loaded persona ids, sorted.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.personas))
	for id := range c.personas {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Load reads the embedded personas and then, when dir is non-empty and
// exists, the *.toml files in dir. Personas from dir replace embedded ones
// with the same id.
func Load(dir string) (*Catalog, error) {
	c := &Catalog{personas: make(map[string]*Persona)}

	if err := c.loadFS(embedded, "prompts"); err != nil {
		return nil, err
	}

	if dir != "" {
		info, err := os.Stat(dir)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return c, nil
		case err != nil:
			return nil, fmt.Errorf("persona dir: %w", err)
		case !info.IsDir():
			return nil, fmt.Errorf("persona dir %s is not a directory", dir)
		}
		if err := c.loadFS(os.DirFS(dir), "."); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Catalog) loadFS(fsys fs.FS, root string) error {
	return fs.WalkDir(fsys, root, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name != root {
				return fs.SkipDir
			}
			return nil
		}
		if path.Ext(name) != ".toml" {
			return nil
		}

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read persona %s: %w", name, err)
		}
		p, err := parse(data)
		if err != nil {
			return fmt.Errorf("persona %s: %w", name, err)
		}
		c.personas[p.ID] = p
		return nil
	})
}

func parse(data []byte) (*Persona, error) {
	var p Persona
	meta, err := toml.Decode(string(data), &p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPersona, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown keys %v", ErrInvalidPersona, undecoded)
	}
	p.Prompt = strings.TrimSpace(p.Prompt)
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Dump writes the persona as TOML, in the format Load reads.
func Dump(w io.Writer, p *Persona) error {
	return toml.NewEncoder(w).Encode(p)
}
