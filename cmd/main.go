package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/parler/internal/ai"
	"github.com/Vovarama1992/parler/internal/capture"
	"github.com/Vovarama1992/parler/internal/config"
	"github.com/Vovarama1992/parler/internal/delivery"
	"github.com/Vovarama1992/parler/internal/domain"
	"github.com/Vovarama1992/parler/internal/error_notificator"
	"github.com/Vovarama1992/parler/internal/identity"
	"github.com/Vovarama1992/parler/internal/infra"
	"github.com/Vovarama1992/parler/internal/ports"
	"github.com/Vovarama1992/parler/internal/session"
	"github.com/Vovarama1992/parler/internal/speech"
	"github.com/Vovarama1992/parler/internal/turn"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {

	// =========================================================================
	// ENV / CONFIG / LOGGER
	// =========================================================================

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var baseLogger *zap.Logger
	if cfg.IsDevelopment() {
		baseLogger, _ = zap.NewDevelopment()
	} else {
		baseLogger, _ = zap.NewProduction()
	}
	defer baseLogger.Sync()
	sugar := baseLogger.Sugar()
	zl := logger.NewZapLogger(sugar)

	// =========================================================================
	// DB INIT
	// =========================================================================

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("db ping failed: %v", err)
	}
	defer db.Close()

	deviceStore, err := identity.NewSQLiteStore(cfg.LocalDBPath)
	if err != nil {
		log.Fatalf("failed to open local store: %v", err)
	}
	defer deviceStore.Close()

	// =========================================================================
	// ERROR NOTIFICATION
	// =========================================================================

	sinks := []error_notificator.Notificator{error_notificator.NewLogInfra(sugar)}
	if cfg.Telegram.Enabled() {
		tg, err := error_notificator.NewTelegramInfra(cfg.Telegram.BotToken, cfg.Telegram.AdminChatID)
		if err != nil {
			sugar.Warnw("telegram notifications disabled", "error", err)
		} else {
			sinks = append(sinks, tg)
		}
	}
	errService := error_notificator.NewService(sinks...)

	// =========================================================================
	// INFRASTRUCTURE
	// =========================================================================

	conversationRepo := infra.NewConversationRepo(db)

	var archive ports.AudioArchive
	if cfg.S3.Enabled() {
		s3Client, err := infra.NewS3Client(ctx, infra.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Secure:    cfg.S3.Secure,
		})
		if err != nil {
			log.Fatalf("failed to init s3: %v", err)
		}
		archive = domain.NewAudioArchive(s3Client, speech.AudioDuration, sugar)
	}

	// =========================================================================
	// CLIENTS (AI / STT / TTS)
	// =========================================================================

	chatClient := ai.NewOpenAIClient(ai.OpenAIConfig{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.ChatModel,
		Temperature: cfg.OpenAI.Temperature,
		MaxTokens:   cfg.OpenAI.MaxTokens,
	})

	openAIAudio := speech.NewOpenAIClient(speech.OpenAIConfig{
		APIKey:   cfg.OpenAI.APIKey,
		BaseURL:  cfg.OpenAI.BaseURL,
		Language: cfg.STT.Language,
		Voice:    cfg.TTS.Voice,
	})

	var sttClient speech.STTClient = openAIAudio
	if cfg.STT.Provider == "deepgram" {
		sttClient = speech.NewDeepgramClient(cfg.STT.DeepgramAPIKey, cfg.STT.Language, "")
	}

	var ttsClient speech.TTSClient = openAIAudio
	if cfg.TTS.Provider == "elevenlabs" {
		ttsClient = speech.NewElevenLabsClient(cfg.TTS.ElevenLabsAPIKey, cfg.TTS.ElevenLabsVoiceID, "")
	}

	var player speech.Player = speech.SilentPlayer{}
	if cfg.Audio.Player == "ffplay" {
		player = speech.NewFFPlayPlayer("")
	}

	var recorder capture.Recorder
	var audioSink delivery.AudioSink
	if cfg.Audio.Recorder == "ffmpeg" {
		recorder = capture.NewFFmpegRecorder("", cfg.Audio.RecorderInput, cfg.Audio.Dir)
	} else {
		fileRecorder := capture.NewFileRecorder(cfg.Audio.Dir, ".m4a")
		recorder = fileRecorder
		audioSink = fileRecorder
	}

	// =========================================================================
	// DOMAIN SERVICES
	// =========================================================================

	conversationService := domain.NewConversationService(conversationRepo, errService, sugar)
	aiService := ai.NewService(chatClient, ai.SystemPrompt, sugar)
	speechService := speech.NewService(sttClient, ttsClient, player, cfg.Audio.Dir, cfg.Audio.PlaybackTimeout, sugar)

	sess := session.New()
	sess.OnStatusChange(func(from, to session.Status) {
		sugar.Debugw("[session] status", "from", from, "to", to)
	})

	turnService := turn.NewService(turn.Deps{
		Session:  sess,
		Recorder: recorder,
		STT:      speechService,
		Dialogue: aiService,
		Speaker:  speechService,
		Store:    conversationService,
		Archive:  archive,
		Notifier: errService,
		Log:      sugar,
	})

	// =========================================================================
	// ANONYMOUS IDENTITY
	// =========================================================================

	userID, err := identity.NewService(deviceStore, sugar).Bootstrap(ctx)
	if err != nil {
		log.Fatalf("identity bootstrap failed: %v", err)
	}
	sess.SetUserID(userID)
	sess.SetInitialized(true)

	// =========================================================================
	// HTTP ROUTER
	// =========================================================================

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	turnHandler := delivery.NewTurnHandler(turnService, audioSink, zl)
	delivery.RegisterRoutes(r, turnHandler, cfg.RateLimit)

	// =========================================================================
	// START SERVER
	// =========================================================================

	addr := ":" + cfg.Port
	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "listening at " + addr,
		Service: "parler",
	})

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
