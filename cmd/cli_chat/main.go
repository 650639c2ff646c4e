package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lume/internal/agent"
	"lume/internal/config"
	"lume/internal/db"
	"lume/internal/domain"
	"lume/internal/llm"
	"lume/internal/repository"
	"lume/internal/service"
)

// deps agrupa lo que necesitan los comandos; close libera las conexiones.
type deps struct {
	users *service.UserService
	chats *service.ChatService
	close func()
}

func main() {
	var username string

	rootCmd := &cobra.Command{
		Use:   "cli_chat",
		Short: "Chat with Lume from the terminal",
		Long:  "Terminal chat over the same agent runtime and transcript store used by the web app.",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer d.close()
			if err := ensureUser(cmd.Context(), d.users, username); err != nil {
				return err
			}
			return chatLoop(cmd.Context(), d.chats, username)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&username, "username", "u", "", "registered username to chat as")
	_ = rootCmd.MarkPersistentFlagRequired("username")

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Print the stored conversation of a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := buildDeps(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer d.close()
			if err := ensureUser(cmd.Context(), d.users, username); err != nil {
				return err
			}
			turns, err := d.chats.History(cmd.Context(), username)
			if err != nil {
				return fmt.Errorf("load history: %w", err)
			}
			if len(turns) == 0 {
				fmt.Println("No messages yet.")
				return nil
			}
			for _, t := range turns {
				fmt.Printf("[%s] %s > %s\n", t.Timestamp.Local().Format("2006-01-02 15:04"), speaker(t.Role), t.Content)
			}
			return nil
		},
	}
	rootCmd.AddCommand(historyCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func chatLoop(ctx context.Context, chats *service.ChatService, username string) error {
	reader := bufio.NewReader(os.Stdin)
	fmt.Println("---- Lume (escribe 'salir' para terminar) ----")
	for {
		fmt.Print("Tu > ")
		text, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("leer input: %w", err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if strings.EqualFold(text, "salir") || strings.EqualFold(text, "exit") {
			fmt.Println("Saliendo del chat...")
			return nil
		}

		exchange, err := chats.Send(ctx, username, text)
		if err != nil {
			fmt.Printf("error generando respuesta: %v\n", err)
			continue
		}
		fmt.Printf("Lume > %s\n", exchange.ModelTurn.Content)
	}
}

func ensureUser(ctx context.Context, users *service.UserService, username string) error {
	if _, err := users.GetProfile(ctx, username); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return fmt.Errorf("user %q is not registered; sign up through the web app first", username)
		}
		return err
	}
	return nil
}

func speaker(role string) string {
	if role == domain.RoleUser {
		return "Tu"
	}
	return "Lume"
}

// buildDeps arma store, runtime de agentes y servicios. Con storeOnly no se crea el cliente LLM.
func buildDeps(ctx context.Context, storeOnly bool) (*deps, error) {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	logger := zap.NewExample()

	var (
		userRepo repository.UserRepository
		chatRepo repository.ChatRepository
		closers  []func()
	)
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		closers = append(closers, pool.Close)
		userRepo = repository.NewPgUserRepository(pool)
		chatRepo = repository.NewPgChatRepository(pool)
	default:
		client, database, err := db.NewMongo(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		closers = append(closers, func() {
			ctxClose, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctxClose)
		})
		userRepo = repository.NewMongoUserRepository(database.Collection(db.UsersCollection))
		chatRepo = repository.NewMongoChatRepository(database.Collection(db.ChatsCollection))
	}

	d := &deps{
		users: service.NewUserService(logger, userRepo, nil),
		close: func() {
			for _, c := range closers {
				c()
			}
			_ = logger.Sync()
		},
	}

	if storeOnly {
		d.chats = service.NewChatService(logger, chatRepo, nil)
		return d, nil
	}

	var client llm.Client
	if cfg.LLMProvider == config.LLMProviderOpenAI {
		client = llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, logger)
	} else {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, logger)
		if err != nil {
			d.close()
			return nil, fmt.Errorf("llm client: %w", err)
		}
		client = gemini
	}

	catalog, err := agent.LoadCatalog(cfg.AgentsFile)
	if err != nil {
		d.close()
		return nil, err
	}
	sessions := agent.NewInMemorySessionService()
	runner, err := agent.NewRunner(agent.RunnerConfig{
		AppName:      cfg.AgentAppName,
		Catalog:      catalog.WithModel(cfg.LLMModelOverride),
		Sessions:     sessions,
		Client:       client,
		MaxTransfers: cfg.AgentMaxTransfers,
		Logger:       logger,
	})
	if err != nil {
		d.close()
		return nil, err
	}
	bridge := agent.NewBridge(cfg.AgentAppName, runner, sessions, time.Duration(cfg.AgentTimeoutSeconds)*time.Second, logger)
	d.chats = service.NewChatService(logger, chatRepo, bridge)
	return d, nil
}
