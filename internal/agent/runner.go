package agent

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lume/internal/llm"
)

const (
	// TransferToolName es la herramienta con la que el modelo delega en un sub-agente.
	TransferToolName = "transfer_to_agent"
	transferArg      = "agent_name"

	authorUser = "user"

	DefaultMaxTransfers = 3
)

var (
	ErrTransferLimit = errors.New("agent transfer limit reached")
	ErrUnknownAgent  = errors.New("unknown agent")
)

type RunnerConfig struct {
	AppName      string
	Catalog      *Catalog
	Sessions     SessionService
	Client       llm.Client
	MaxTransfers int
	Logger       *zap.Logger
}

// Runner ejecuta una invocacion: desde el agente raiz hasta la respuesta final.
type Runner struct {
	appName      string
	catalog      *Catalog
	sessions     SessionService
	client       llm.Client
	maxTransfers int
	logger       *zap.Logger
}

func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if cfg.Catalog == nil || cfg.Sessions == nil || cfg.Client == nil {
		return nil, errors.New("runner requires catalog, sessions and client")
	}
	// Negativo toma el valor por defecto; 0 desactiva la delegacion.
	if cfg.MaxTransfers < 0 {
		cfg.MaxTransfers = DefaultMaxTransfers
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Runner{
		appName:      cfg.AppName,
		catalog:      cfg.Catalog,
		sessions:     cfg.Sessions,
		client:       cfg.Client,
		maxTransfers: cfg.MaxTransfers,
		logger:       cfg.Logger,
	}, nil
}

// Run agrega el mensaje del usuario a la sesion y va entregando los eventos generados.
// El ultimo evento de una invocacion exitosa es el de respuesta final.
func (r *Runner) Run(ctx context.Context, userID, sessionID, text string) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		sess, err := r.sessions.Get(ctx, r.appName, userID, sessionID)
		if err != nil {
			yield(Event{}, err)
			return
		}

		invocationID := "inv-" + uuid.NewString()
		userEvent := Event{
			ID:           uuid.NewString(),
			InvocationID: invocationID,
			Author:       authorUser,
			Text:         text,
		}
		if err := r.sessions.AppendEvent(ctx, sess, userEvent); err != nil {
			yield(Event{}, err)
			return
		}

		active := r.catalog.Root()
		toolRounds := 0
		for {
			reply, err := r.client.Generate(ctx, r.buildRequest(active, sess, invocationID))
			if err != nil {
				yield(Event{}, fmt.Errorf("agent %s: %w", active.Name, err))
				return
			}

			if len(reply.Calls) == 0 || toolRounds >= r.maxTransfers {
				if len(reply.Calls) > 0 {
					r.logger.Warn("agent tool calls ignored",
						zap.String("agent", active.Name),
						zap.Int("rounds", toolRounds),
						zap.Error(ErrTransferLimit),
					)
				}
				final := Event{
					ID:           uuid.NewString(),
					InvocationID: invocationID,
					Author:       active.Name,
					Text:         reply.Text,
					Final:        true,
				}
				if err := r.sessions.AppendEvent(ctx, sess, final); err != nil {
					yield(Event{}, err)
					return
				}
				yield(final, nil)
				return
			}

			toolRounds++
			call := reply.Calls[0]
			if call.ID == "" {
				call.ID = "call_" + uuid.NewString()
			}
			next, result := r.resolveCall(active, call)

			callEvent := Event{
				ID:           uuid.NewString(),
				InvocationID: invocationID,
				Author:       active.Name,
				Text:         reply.Text,
				Call:         &call,
			}
			resultEvent := Event{
				ID:           uuid.NewString(),
				InvocationID: invocationID,
				Author:       active.Name,
				Result:       &result,
			}
			if next != "" {
				resultEvent.TransferTo = next
			}
			if err := r.sessions.AppendEvent(ctx, sess, callEvent); err != nil {
				yield(Event{}, err)
				return
			}
			if err := r.sessions.AppendEvent(ctx, sess, resultEvent); err != nil {
				yield(Event{}, err)
				return
			}
			if !yield(resultEvent, nil) {
				return
			}

			if next != "" {
				r.logger.Info("agent transfer",
					zap.String("from", active.Name),
					zap.String("to", next),
					zap.String("user_id", userID),
				)
				active, _ = r.catalog.Get(next)
			}
		}
	}
}

// resolveCall valida la llamada; devuelve el agente destino ("" si no hay transferencia).
func (r *Runner) resolveCall(active Definition, call llm.ToolCall) (string, llm.ToolResult) {
	result := llm.ToolResult{CallID: call.ID, Name: call.Name}
	if call.Name != TransferToolName {
		result.Response = map[string]any{"error": fmt.Sprintf("unknown tool %q", call.Name)}
		return "", result
	}
	target := strings.TrimSpace(call.StringArg(transferArg))
	for _, sub := range active.SubAgents {
		if sub == target {
			result.Response = map[string]any{"transferred_to": target}
			return target, result
		}
	}
	result.Response = map[string]any{"error": fmt.Sprintf("%v: %q is not a sub-agent of %s", ErrUnknownAgent, target, active.Name)}
	return "", result
}

func (r *Runner) buildRequest(active Definition, sess *Session, invocationID string) llm.Request {
	req := llm.Request{
		Model:  active.Model,
		System: r.instructionFor(active),
	}
	if len(active.SubAgents) > 0 && r.maxTransfers > 0 {
		req.Tools = []llm.Tool{{
			Name:        TransferToolName,
			Description: "Transfer the conversation to the sub-agent best suited to answer the user.",
			Params: []llm.ToolParam{{
				Name:        transferArg,
				Description: "Name of the agent to transfer to.",
				Enum:        append([]string(nil), active.SubAgents...),
				Required:    true,
			}},
		}}
	}

	for _, ev := range sess.Events {
		switch {
		case ev.Call != nil || ev.Result != nil:
			// Lo que el modelo dijo antes de delegar queda en el historial.
			if ev.Text != "" {
				req.Messages = append(req.Messages, llm.Message{Role: llm.RoleModel, Text: ev.Text})
			}
			// Solo las llamadas del agente activo dentro de esta invocacion; el resto no tiene
			// la herramienta declarada.
			if ev.InvocationID != invocationID || ev.Author != active.Name {
				continue
			}
			if ev.Call != nil {
				req.Messages = append(req.Messages, llm.Message{Role: llm.RoleModel, Call: ev.Call})
			} else {
				req.Messages = append(req.Messages, llm.Message{Role: llm.RoleTool, Result: ev.Result})
			}
		case ev.Author == authorUser:
			req.Messages = append(req.Messages, llm.Message{Role: llm.RoleUser, Text: ev.Text})
		case ev.Text != "":
			req.Messages = append(req.Messages, llm.Message{Role: llm.RoleModel, Text: ev.Text})
		}
	}
	return req
}

func (r *Runner) instructionFor(def Definition) string {
	if len(def.SubAgents) == 0 || r.maxTransfers == 0 {
		return def.Instruction
	}
	var b strings.Builder
	b.WriteString(strings.TrimSpace(def.Instruction))
	b.WriteString("\n\nYou can transfer the conversation to these agents with the ")
	b.WriteString(TransferToolName)
	b.WriteString(" tool when they are better suited to answer:\n")
	for _, name := range def.SubAgents {
		sub, _ := r.catalog.Get(name)
		fmt.Fprintf(&b, "- %s: %s\n", sub.Name, sub.Description)
	}
	b.WriteString("Otherwise answer the user directly.")
	return b.String()
}
