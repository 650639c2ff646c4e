package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lume/internal/domain"
	"lume/internal/metrics"
	"lume/internal/repository"
)

// Asker es la vista del bridge del agente que necesita el chat.
type Asker interface {
	Ask(ctx context.Context, username, text string) (string, error)
}

// ChatService persiste cada intercambio alrededor de una invocacion del agente.
type ChatService struct {
	logger *zap.Logger
	chats  repository.ChatRepository
	agent  Asker
	now    func() time.Time
}

// ChatExchange agrupa el turno del usuario y la respuesta del agente.
type ChatExchange struct {
	UserTurn  domain.Turn
	ModelTurn domain.Turn
}

var (
	ErrChatServiceNotConfigured = errors.New("chat service not configured")
	ErrMessageInvalidInput      = errors.New("message invalid input")
	ErrAgentUnavailable         = errors.New("agent unavailable")
)

func NewChatService(logger *zap.Logger, chats repository.ChatRepository, agent Asker) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		logger: logger,
		chats:  chats,
		agent:  agent,
		now:    time.Now,
	}
}

// Send guarda el turno del usuario antes de invocar al agente. Si el agente falla el turno
// queda guardado sin respuesta y se devuelve ErrAgentUnavailable.
func (s *ChatService) Send(ctx context.Context, username, text string) (ChatExchange, error) {
	if s == nil || s.chats == nil || s.agent == nil {
		return ChatExchange{}, ErrChatServiceNotConfigured
	}

	username = strings.TrimSpace(username)
	text = strings.TrimSpace(text)
	if username == "" || text == "" {
		return ChatExchange{}, ErrMessageInvalidInput
	}

	userTurn := domain.Turn{
		ID:        uuid.NewString(),
		Username:  username,
		Role:      domain.RoleUser,
		Content:   text,
		Timestamp: s.timestamp(),
	}
	if err := s.chats.Append(ctx, userTurn); err != nil {
		return ChatExchange{}, err
	}
	metrics.ChatTurns.WithLabelValues(domain.RoleUser).Inc()

	start := time.Now()
	reply, err := s.agent.Ask(ctx, username, text)
	metrics.AgentLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AgentErrors.Inc()
		s.logger.Error("agent invocation failed",
			zap.String("username", username),
			zap.String("turn_id", userTurn.ID),
			zap.Error(err),
		)
		return ChatExchange{UserTurn: userTurn}, fmt.Errorf("%w: %v", ErrAgentUnavailable, err)
	}

	// El turno del modelo siempre queda despues del turno del usuario.
	modelTs := s.timestamp()
	if !modelTs.After(userTurn.Timestamp) {
		modelTs = userTurn.Timestamp.Add(time.Millisecond)
	}
	modelTurn := domain.Turn{
		ID:        uuid.NewString(),
		Username:  username,
		Role:      domain.RoleModel,
		Content:   reply,
		Timestamp: modelTs,
	}
	if err := s.chats.Append(ctx, modelTurn); err != nil {
		return ChatExchange{UserTurn: userTurn}, err
	}
	metrics.ChatTurns.WithLabelValues(domain.RoleModel).Inc()

	return ChatExchange{UserTurn: userTurn, ModelTurn: modelTurn}, nil
}

// History devuelve el transcript del usuario en orden cronologico.
func (s *ChatService) History(ctx context.Context, username string) ([]domain.Turn, error) {
	if s == nil || s.chats == nil {
		return nil, ErrChatServiceNotConfigured
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return []domain.Turn{}, nil
	}
	return s.chats.ListByUsername(ctx, username)
}

func (s *ChatService) CountTurns(ctx context.Context, username string) (int64, error) {
	if s == nil || s.chats == nil {
		return 0, ErrChatServiceNotConfigured
	}
	return s.chats.CountByUsername(ctx, strings.TrimSpace(username))
}

// timestamp trunca a milisegundos, la precision que guardan ambos backends.
func (s *ChatService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}
