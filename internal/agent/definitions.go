package agent

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed agents.yaml
var defaultAgents []byte

var ErrInvalidCatalog = errors.New("invalid agent catalog")

// Definition describe un agente: modelo, instruccion y a quien puede delegar.
type Definition struct {
	Name        string   `yaml:"name"`
	Model       string   `yaml:"model"`
	Description string   `yaml:"description"`
	Instruction string   `yaml:"instruction"`
	SubAgents   []string `yaml:"sub_agents"`
}

type catalogFile struct {
	Root   string       `yaml:"root"`
	Agents []Definition `yaml:"agents"`
}

// Catalog es el arbol de agentes ya validado.
type Catalog struct {
	root   string
	agents map[string]Definition
	order  []string
}

// LoadCatalog lee el catalogo desde path; con path vacio usa el embebido.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultAgents)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agents file: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	c := &Catalog{
		root:   strings.TrimSpace(f.Root),
		agents: make(map[string]Definition, len(f.Agents)),
	}
	for _, def := range f.Agents {
		def.Name = strings.TrimSpace(def.Name)
		if def.Name == "" {
			return nil, fmt.Errorf("%w: agent without name", ErrInvalidCatalog)
		}
		if strings.TrimSpace(def.Model) == "" {
			return nil, fmt.Errorf("%w: agent %q without model", ErrInvalidCatalog, def.Name)
		}
		if _, dup := c.agents[def.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate agent %q", ErrInvalidCatalog, def.Name)
		}
		c.agents[def.Name] = def
		c.order = append(c.order, def.Name)
	}

	if _, ok := c.agents[c.root]; !ok {
		return nil, fmt.Errorf("%w: root agent %q not defined", ErrInvalidCatalog, c.root)
	}
	for _, name := range c.order {
		for _, sub := range c.agents[name].SubAgents {
			if _, ok := c.agents[sub]; !ok {
				return nil, fmt.Errorf("%w: agent %q references unknown sub-agent %q", ErrInvalidCatalog, name, sub)
			}
		}
	}
	if err := c.checkCycles(); err != nil {
		return nil, err
	}
	return c, nil
}

// checkCycles recorre el arbol desde la raiz; un agente no puede ser su propio descendiente.
func (c *Catalog) checkCycles() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(c.agents))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("%w: delegation cycle through %q", ErrInvalidCatalog, name)
		case done:
			return nil
		}
		state[name] = visiting
		for _, sub := range c.agents[name].SubAgents {
			if err := visit(sub); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}

	for _, name := range c.order {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) Root() Definition {
	return c.agents[c.root]
}

func (c *Catalog) Get(name string) (Definition, bool) {
	def, ok := c.agents[name]
	return def, ok
}

// Names devuelve los agentes en el orden del archivo.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// WithModel fuerza el mismo modelo en todos los agentes (LLM_MODEL_OVERRIDE).
func (c *Catalog) WithModel(model string) *Catalog {
	model = strings.TrimSpace(model)
	if model == "" {
		return c
	}
	out := &Catalog{
		root:   c.root,
		agents: make(map[string]Definition, len(c.agents)),
		order:  c.Names(),
	}
	for name, def := range c.agents {
		def.Model = model
		out.agents[name] = def
	}
	return out
}
