package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gopkg.in/yaml.v3"

	"quizly/internal/ai"
	"quizly/internal/db"
	"quizly/internal/generation"
	"quizly/internal/grading"
	"quizly/internal/handler"
	"quizly/internal/job"
	"quizly/internal/middleware"
	"quizly/internal/podcast"
	"quizly/internal/storage"
)

type Config struct {
	Host                string           `yaml:"host"`
	Port                int              `yaml:"port"`
	DBPath              string           `yaml:"db_path" validate:"required"`
	JWTSecretKey        string           `yaml:"jwt_secret_key" validate:"required"`
	OpenAIAPIKey        string           `yaml:"openai_api_key" validate:"required"`
	GeminiAPIKey        string           `yaml:"gemini_api_key"`
	ChatBackend         string           `yaml:"chat_backend" validate:"omitempty,oneof=openai gemini"`
	ChatModel           string           `yaml:"chat_model"`
	EmbeddingModel      string           `yaml:"embedding_model"`
	SimilarityThreshold float64          `yaml:"similarity_threshold"`
	TTSBackend          string           `yaml:"tts_backend" validate:"omitempty,oneof=google openai"`
	S3Storage           storage.S3Config `yaml:"s3_storage"`
	Podcast             PodcastConfig    `yaml:"podcast"`
}

// PodcastConfig tunes episode assembly. All fields are optional.
type PodcastConfig struct {
	AmbientURL      string `yaml:"ambient_url"`
	QuestionerVoice string `yaml:"questioner_voice"`
	AnswererVoice   string `yaml:"answerer_voice"`
	LanguageCode    string `yaml:"language_code"`
}

func ReadConfig(filePath string) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	var cfg Config
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ChatBackend == "" {
		cfg.ChatBackend = "openai"
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.TTSBackend == "" {
		cfg.TTSBackend = "google"
	}

	return &cfg, nil
}

// fetchAmbient downloads the background track once at startup.
func fetchAmbient(url string) ([]byte, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ambient track: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching ambient track", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ambient track: %w", err)
	}
	return data, nil
}

func ValidateConfig(cfg *Config) error {
	validate := validator.New()
	return validate.Struct(cfg)
}

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func main() {
	configFilePath := "config.yml"
	if env := os.Getenv("CONFIG_FILE_PATH"); env != "" {
		configFilePath = env
	}

	cfg, err := ReadConfig(configFilePath)
	if err != nil {
		log.Fatalf("error reading configuration: %v", err)
	}

	if err := ValidateConfig(cfg); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logr := slog.New(slog.NewTextHandler(os.Stdout, nil))

	dbStorage, err := db.ConnectDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var storageProvider storage.Provider
	storageProvider, err = storage.NewS3Provider(cfg.S3Storage)
	if err != nil {
		logr.Warn("failed to initialize S3 storage, uploads disabled", "error", err)
		storageProvider = nil
	}

	openaiClient, err := ai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.ChatModel, cfg.EmbeddingModel)
	if err != nil {
		log.Fatalf("Failed to create OpenAI client: %v", err)
	}

	var completer ai.ChatCompleter = openaiClient
	if cfg.ChatBackend == "gemini" {
		geminiClient, err := ai.NewGeminiClient(context.Background(), cfg.GeminiAPIKey, cfg.ChatModel)
		if err != nil {
			log.Fatalf("Failed to create Gemini client: %v", err)
		}
		completer = geminiClient
	}

	var synthesizer ai.SpeechSynthesizer = openaiClient
	if cfg.TTSBackend == "google" {
		ttsClient, err := ai.NewGoogleTTSClient(context.Background())
		if err != nil {
			logr.Warn("failed to initialize Google TTS, falling back to OpenAI speech", "error", err)
		} else {
			synthesizer = ttsClient
		}
	}

	scorer := grading.NewScorer(openaiClient, dbStorage, cfg.SimilarityThreshold, logr)
	grader := grading.NewGrader(scorer, completer, logr)
	generator := generation.NewGenerator(completer, logr)

	assembler := podcast.NewAssembler(completer, synthesizer, logr)
	if cfg.Podcast.QuestionerVoice != "" && cfg.Podcast.AnswererVoice != "" {
		lang := cfg.Podcast.LanguageCode
		if lang == "" {
			lang = "en-US"
		}
		assembler.WithVoices(map[podcast.Speaker]ai.Voice{
			podcast.SpeakerQuestioner: {LanguageCode: lang, Name: cfg.Podcast.QuestionerVoice},
			podcast.SpeakerAnswerer:   {LanguageCode: lang, Name: cfg.Podcast.AnswererVoice},
		})
	}
	if cfg.Podcast.AmbientURL != "" {
		if ambient, err := fetchAmbient(cfg.Podcast.AmbientURL); err != nil {
			logr.Warn("failed to fetch ambient track, episodes will have no background bed", "url", cfg.Podcast.AmbientURL, "error", err)
		} else {
			assembler.WithAmbient(ambient)
		}
	}

	h := handler.New(dbStorage, cfg.JWTSecretKey, storageProvider, completer, synthesizer, grader, scorer, generator, logr)

	e := echo.New()

	middleware.Setup(e, logr)

	e.Validator = &CustomValidator{validator: validator.New()}

	h.RegisterRoutes(e)

	podcastBuilder := job.NewPodcastBuilder(dbStorage, assembler, storageProvider, logr)
	go podcastBuilder.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		logr.Info("starting server", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	<-quit
	logr.Info("shutting down server")

	podcastBuilder.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}

	if err := dbStorage.Close(); err != nil {
		logr.Warn("failed to close database", "error", err)
	}

	logr.Info("server gracefully stopped")
}
