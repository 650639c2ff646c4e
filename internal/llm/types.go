package llm

import "context"

const (
	RoleUser  = "user"
	RoleModel = "model"
	// RoleTool marca el resultado de una herramienta que se devuelve al modelo.
	RoleTool = "tool"
)

// Client define la interfaz comun de los proveedores de LLM.
type Client interface {
	Generate(ctx context.Context, req Request) (Reply, error)
}

// Request es una llamada completa: instruccion de sistema, historial y herramientas disponibles.
type Request struct {
	Model    string
	System   string
	Messages []Message
	Tools    []Tool
}

// Message es un elemento del historial. Solo uno de Text, Call o Result viene cargado.
type Message struct {
	Role   string
	Text   string
	Call   *ToolCall
	Result *ToolResult
}

type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

type ToolResult struct {
	CallID   string
	Name     string
	Response map[string]any
}

// Tool describe una funcion que el modelo puede invocar. Los parametros son siempre strings.
type Tool struct {
	Name        string
	Description string
	Params      []ToolParam
}

type ToolParam struct {
	Name        string
	Description string
	Enum        []string
	Required    bool
}

// Reply es la respuesta del modelo: texto, llamadas a herramientas o ambas.
type Reply struct {
	Text  string
	Calls []ToolCall
}

// StringArg devuelve un argumento string de la llamada o "" si falta.
func (c ToolCall) StringArg(name string) string {
	v, ok := c.Args[name]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func requiredParams(params []ToolParam) []string {
	var out []string
	for _, p := range params {
		if p.Required {
			out = append(out, p.Name)
		}
	}
	return out
}
