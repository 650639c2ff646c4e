package agent

import (
	"context"
	"errors"
	"iter"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventRunner es lo que el bridge necesita del runtime.
type EventRunner interface {
	Run(ctx context.Context, userID, sessionID, text string) iter.Seq2[Event, error]
}

// Bridge traduce un mensaje de la web en una invocacion bloqueante del runtime.
// Cada username tiene una unica sesion, creada en el primer mensaje y reutilizada.
type Bridge struct {
	appName  string
	runner   EventRunner
	sessions SessionService
	timeout  time.Duration
	logger   *zap.Logger

	slots sync.Map
}

func NewBridge(appName string, runner EventRunner, sessions SessionService, timeout time.Duration, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		appName:  appName,
		runner:   runner,
		sessions: sessions,
		timeout:  timeout,
		logger:   logger,
	}
}

// SessionIDFor deriva el id de sesion del runtime a partir del username.
func SessionIDFor(username string) string {
	return "session-" + username
}

// Ask corre una invocacion y devuelve el texto de la ultima respuesta final, o "" si no hubo.
func (b *Bridge) Ask(ctx context.Context, username, text string) (string, error) {
	sessionID := SessionIDFor(username)
	if _, err := b.sessions.Create(ctx, b.appName, username, sessionID); err != nil && !errors.Is(err, ErrSessionExists) {
		return "", err
	}

	// El timeout cubre tambien la espera del turno de la sesion.
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	// Las invocaciones de una misma sesion van en serie.
	slot := b.slotFor(sessionID)
	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-slot }()

	var final string
	for ev, err := range b.runner.Run(ctx, username, sessionID, text) {
		if err != nil {
			b.logger.Error("agent run failed",
				zap.String("username", username),
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
			return "", err
		}
		if ev.IsFinalResponse() {
			final = ev.Text
		}
	}
	return final, nil
}

// slotFor devuelve el semaforo de un lugar de la sesion. Hay uno por username, igual que
// las sesiones del runtime, y viven lo mismo que el proceso.
func (b *Bridge) slotFor(sessionID string) chan struct{} {
	v, _ := b.slots.LoadOrStore(sessionID, make(chan struct{}, 1))
	return v.(chan struct{})
}
