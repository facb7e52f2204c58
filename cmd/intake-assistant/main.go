// intake-assistant is the interactive console entry point for the Smile
// Education intake assistant: it wires the store, record mailer, and
// completion client together and runs one conversation session on stdin.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/smile-education/intake-assistant/internal/flow"
	"github.com/smile-education/intake-assistant/internal/genai"
	"github.com/smile-education/intake-assistant/internal/mailer"
	"github.com/smile-education/intake-assistant/internal/models"
	"github.com/smile-education/intake-assistant/internal/session"
	"github.com/smile-education/intake-assistant/internal/store"
	"github.com/smile-education/intake-assistant/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for intake-assistant state data
	DefaultStateDir = "/var/lib/intake-assistant"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "intake.db"
)

const userTypeMenu = "Who am I speaking with today?\n" +
	"  1. A candidate looking for work\n" +
	"  2. A school looking to recruit\n" +
	"  3. Not sure yet\n" +
	"Enter 1, 2 or 3: "

const turnApology = "Sorry, something went wrong on our side. Nothing was lost — please try that again."

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	st, err := buildStore(flags)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	client, err := genai.NewClient(buildGenAIOptions(flags)...)
	if err != nil {
		slog.Error("Failed to initialize completion client", "error", err)
		os.Exit(1)
	}

	sender := mailer.NewRecordMailer(st, buildMailerOptions(flags)...)

	if err := runChatLoop(client, sender, st, flags); err != nil {
		slog.Error("intake-assistant failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("intake-assistant exited successfully")
}

// Config holds environment configuration
type Config struct {
	DBDriver     string
	DatabaseDSN  string
	StateDir     string
	OpenAIKey    string
	Model        string
	UploadLink   string
	PortalLink   string
	HistoryLimit int
}

// Flags holds command line flag values
type Flags struct {
	dbDriver     *string
	dbDSN        *string
	stateDir     *string
	openaiKey    *string
	model        *string
	uploadLink   *string
	portalLink   *string
	historyLimit *int
}

// initializeLogger sets up structured logging; INTAKE_DEBUG raises the level.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("INTAKE_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	return Config{
		DBDriver:     util.GetEnvDefault("INTAKE_DB_DRIVER", "sqlite3"),
		DatabaseDSN:  os.Getenv("DATABASE_URL"),
		StateDir:     util.GetEnvDefault("INTAKE_STATE_DIR", DefaultStateDir),
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		Model:        os.Getenv("INTAKE_MODEL"),
		UploadLink:   os.Getenv("INTAKE_UPLOAD_LINK"),
		PortalLink:   os.Getenv("INTAKE_PORTAL_LINK"),
		HistoryLimit: util.ParseIntEnv("INTAKE_HISTORY_LIMIT", flow.DefaultHistoryLimit),
	}
}

// parseCommandLineFlags parses command line flags with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		dbDriver:     flag.String("db-driver", config.DBDriver, "database driver: sqlite3, postgres, or memory"),
		dbDSN:        flag.String("db-dsn", config.DatabaseDSN, "database DSN (file path for sqlite3, connection URL for postgres)"),
		stateDir:     flag.String("state-dir", config.StateDir, "state directory for the default SQLite database"),
		openaiKey:    flag.String("openai-key", config.OpenAIKey, "OpenAI API key"),
		model:        flag.String("model", config.Model, "completion model name"),
		uploadLink:   flag.String("upload-link", config.UploadLink, "secure upload form link for candidate emails"),
		portalLink:   flag.String("portal-link", config.PortalLink, "portal base link for school shortlist references"),
		historyLimit: flag.Int("history-limit", config.HistoryLimit, "number of messages kept in the rolling history"),
	}
	flag.Parse()
	return flags
}

// buildStore selects the store backend from the driver flag.
func buildStore(flags Flags) (store.Store, error) {
	switch *flags.dbDriver {
	case "postgres":
		return store.NewPostgresStore(store.WithDSN(*flags.dbDSN))
	case "memory":
		return store.NewInMemoryStore(), nil
	case "sqlite3", "":
		dsn := *flags.dbDSN
		if dsn == "" {
			dsn = filepath.Join(*flags.stateDir, DefaultDBFileName)
		}
		return store.NewSQLiteStore(store.WithDSN(dsn))
	default:
		return nil, fmt.Errorf("unknown database driver: %s", *flags.dbDriver)
	}
}

func buildGenAIOptions(flags Flags) []genai.Option {
	var opts []genai.Option
	if *flags.openaiKey != "" {
		opts = append(opts, genai.WithAPIKey(*flags.openaiKey))
	}
	if *flags.model != "" {
		opts = append(opts, genai.WithModel(*flags.model))
	}
	return opts
}

func buildMailerOptions(flags Flags) []mailer.Option {
	var opts []mailer.Option
	if *flags.uploadLink != "" {
		opts = append(opts, mailer.WithUploadLink(*flags.uploadLink))
	}
	if *flags.portalLink != "" {
		opts = append(opts, mailer.WithPortalLink(*flags.portalLink))
	}
	return opts
}

// runChatLoop asks which flow to run, then relays stdin lines through the
// session until the user quits. A failed turn prints an apology and keeps
// going; the session's rollback guarantees its state is unchanged.
func runChatLoop(client genai.ClientInterface, sender mailer.Service, st store.Store, flags Flags) error {
	reader := bufio.NewScanner(os.Stdin)

	userType, err := selectUserType(reader)
	if err != nil {
		return err
	}

	sess, err := session.New(userType, client, sender, st, session.WithHistoryLimit(*flags.historyLimit))
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	slog.Info("Chat session started", "sessionID", sess.ID, "userType", userType)

	ctx := context.Background()

	// First turn is seeded so the flow opens the conversation.
	reply, err := sess.Respond(ctx, "start")
	if err != nil {
		return fmt.Errorf("failed to open conversation: %w", err)
	}
	fmt.Printf("\nAssistant: %s\n", reply)

	for {
		fmt.Print("\nYou: ")
		if !reader.Scan() {
			break
		}
		input := strings.TrimSpace(reader.Text())
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			break
		}

		reply, err := sess.Respond(ctx, input)
		if err != nil {
			slog.Error("Turn failed", "sessionID", sess.ID, "error", err)
			fmt.Printf("\nAssistant: %s\n", turnApology)
			continue
		}
		fmt.Printf("\nAssistant: %s\n", reply)
	}
	if err := reader.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

// selectUserType maps the startup menu choice to a registered user type.
func selectUserType(reader *bufio.Scanner) (models.UserType, error) {
	for {
		fmt.Print(userTypeMenu)
		if !reader.Scan() {
			if err := reader.Err(); err != nil {
				return "", fmt.Errorf("failed to read input: %w", err)
			}
			return "", fmt.Errorf("no input")
		}
		switch strings.TrimSpace(reader.Text()) {
		case "1":
			return models.UserTypeCandidate, nil
		case "2":
			return models.UserTypeSchool, nil
		case "3":
			return models.UserTypeGeneral, nil
		default:
			fmt.Println("Please enter 1, 2 or 3.")
		}
	}
}
