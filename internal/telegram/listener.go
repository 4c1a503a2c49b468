package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"gradepulse/internal/infrastructure"
	"gradepulse/internal/store"
	"gradepulse/internal/validation"
	"gradepulse/pkg/contracts/domain"
)

// FileProcessor consumes a downloaded grade file. Satisfied by
// pipeline.Processor.
type FileProcessor interface {
	ProcessFile(ctx context.Context, filePath, sourceRef string) error
}

// DefaultWelcomeMessage is used when no welcome_message setting is stored.
const DefaultWelcomeMessage = "Welcome! Send /register to link your student ID and receive your grades here."

// acceptedExtensions are the document types picked up from monitored
// channels. PDF is accepted at the edge and rejected by the loader with
// a typed error, so the skip is logged rather than silent.
var acceptedExtensions = map[string]bool{
	".xlsx": true,
	".csv":  true,
	".pdf":  true,
}

// Listener long-polls Telegram updates, routing channel documents to
// the ingestion pipeline and direct messages to the command handlers.
type Listener struct {
	bot         *Bot
	store       store.Store
	processor   FileProcessor
	flow        *registrationFlow
	validator   *validation.FileValidator
	downloadDir string
	pollTimeout int
	logger      *slog.Logger

	// bounds concurrent file ingestions
	sem chan struct{}
}

func NewListener(bot *Bot, st store.Store, processor FileProcessor, downloadDir string, pollTimeout int, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	if pollTimeout <= 0 {
		pollTimeout = 30
	}
	return &Listener{
		bot:         bot,
		store:       st,
		processor:   processor,
		flow:        newRegistrationFlow(),
		validator:   validation.NewFileValidator(logger),
		downloadDir: downloadDir,
		pollTimeout: pollTimeout,
		logger:      logger.With(slog.String("component", "telegram_listener")),
		sem:         make(chan struct{}, 1),
	}
}

// Run blocks consuming updates until the context is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	monitored, err := l.monitoredChannels(ctx)
	if err != nil {
		return fmt.Errorf("telegram: failed to load channel list: %w", err)
	}
	l.logger.Info("listening for updates", slog.Int("monitored_channels", len(monitored)))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = l.pollTimeout
	updates := l.bot.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			l.bot.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			l.handleUpdate(ctx, monitored, update)
		}
	}
}

func (l *Listener) monitoredChannels(ctx context.Context) (map[int64]bool, error) {
	channels, err := l.store.ListChannels(ctx)
	if err != nil {
		return nil, err
	}
	monitored := make(map[int64]bool, len(channels))
	for _, ch := range channels {
		if ch.Active {
			monitored[ch.ID] = true
		}
	}
	return monitored, nil
}

func (l *Listener) handleUpdate(ctx context.Context, monitored map[int64]bool, update tgbotapi.Update) {
	switch {
	case update.ChannelPost != nil && update.ChannelPost.Document != nil:
		post := update.ChannelPost
		if !monitored[post.Chat.ID] {
			return
		}
		l.ingestDocument(ctx, post.Chat.ID, post.Document)
	case update.Message != nil && update.Message.Document != nil && monitored[update.Message.Chat.ID]:
		// group channels deliver documents as regular messages
		l.ingestDocument(ctx, update.Message.Chat.ID, update.Message.Document)
	case update.Message != nil:
		l.handleMessage(ctx, update.Message)
	}
}

// ingestDocument downloads a channel document and hands it to the
// pipeline in a bounded goroutine so a slow file never stalls polling.
func (l *Listener) ingestDocument(ctx context.Context, chatID int64, doc *tgbotapi.Document) {
	ext := strings.ToLower(filepath.Ext(doc.FileName))
	if !acceptedExtensions[ext] {
		return
	}

	fileCtx := infrastructure.EnsureTraceID(ctx)
	logger := l.logger.With(
		slog.String("trace_id", infrastructure.GetTraceID(fileCtx)),
		slog.String("file_name", doc.FileName),
		slog.Int64("channel_id", chatID))
	logger.Info("document received")

	localPath, err := l.download(fileCtx, doc)
	if err != nil {
		logger.Error("failed to download document", slog.String("error", err.Error()))
		return
	}
	if err := l.validator.ValidateGradeFile(localPath); err != nil {
		logger.Warn("document skipped", slog.String("error", err.Error()))
		os.Remove(localPath)
		return
	}

	select {
	case l.sem <- struct{}{}:
	case <-fileCtx.Done():
		return
	}
	go func() {
		defer func() { <-l.sem }()
		if err := l.processor.ProcessFile(fileCtx, localPath, doc.FileName); err != nil {
			logger.Warn("file rejected", slog.String("error", err.Error()))
		}
	}()
}

// download fetches the document body into the download directory,
// keeping the original file name because the subject is derived from it.
func (l *Listener) download(ctx context.Context, doc *tgbotapi.Document) (string, error) {
	file, err := l.bot.api.GetFile(tgbotapi.FileConfig{FileID: doc.FileID})
	if err != nil {
		return "", fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(l.bot.api.Token), nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch file: unexpected status %d", resp.StatusCode)
	}

	localPath := filepath.Join(l.downloadDir, filepath.Base(doc.FileName))
	out, err := os.Create(localPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("write file: %w", err)
	}
	return localPath, nil
}

func (l *Listener) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			l.handleStart(ctx, chatID)
		case "register":
			l.handleRegister(ctx, chatID, msg.From, strings.TrimSpace(msg.CommandArguments()))
		}
		return
	}

	if l.flow.awaiting(chatID) {
		l.completeRegistration(ctx, chatID, msg.From, strings.TrimSpace(msg.Text))
	}
}

func (l *Listener) handleStart(ctx context.Context, chatID int64) {
	text, err := l.store.GetSetting(ctx, store.SettingWelcomeMessage)
	if err != nil || text == "" {
		text = DefaultWelcomeMessage
	}
	l.bot.reply(chatID, text)
}

// handleRegister links a chat to a student ID. With an argument the
// registration completes in one step; without one the chat enters a
// pending state and the next plain message supplies the ID.
func (l *Listener) handleRegister(ctx context.Context, chatID int64, from *tgbotapi.User, studentID string) {
	if studentID == "" {
		l.flow.begin(chatID)
		l.bot.reply(chatID, "Please send your student ID.")
		return
	}
	l.completeRegistration(ctx, chatID, from, studentID)
}

func (l *Listener) completeRegistration(ctx context.Context, chatID int64, from *tgbotapi.User, studentID string) {
	if studentID == "" {
		l.bot.reply(chatID, "That does not look like a student ID, please try again.")
		return
	}

	record := domain.StudentRecord{
		StudentID: studentID,
		ChatID:    fmt.Sprintf("%d", chatID),
		FullName:  displayName(from),
	}
	if err := l.store.UpsertUser(ctx, record); err != nil {
		l.logger.Error("failed to register student",
			slog.String("student_id", studentID),
			slog.String("error", err.Error()))
		l.bot.reply(chatID, "Registration failed, please try again later.")
		return
	}

	l.flow.finish(chatID)
	l.logger.Info("student registered",
		slog.String("student_id", studentID),
		slog.Int64("chat_id", chatID))
	l.bot.reply(chatID, fmt.Sprintf("Registered student ID %s. You will receive your grades here.", studentID))
}

func displayName(from *tgbotapi.User) string {
	if from == nil {
		return ""
	}
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	if name == "" {
		name = from.UserName
	}
	return name
}
