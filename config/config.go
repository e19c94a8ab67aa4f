package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Ping categories used for Telegram routing. The env var suffixes are the
// upper-cased category names, e.g. TELEGRAM_CHAT_ID_BREAKING_NEWS.
const (
	CategoryStratOp      = "STRATOP"
	CategoryPreping      = "PREPING"
	CategoryBreakingNews = "BREAKING_NEWS"
	CategoryCorpActivity = "CORP_ACTIVITY"

	pingsFallbackSuffix = "PINGS"
)

// Categories lists every category that may carry its own Telegram destination.
var Categories = []string{CategoryStratOp, CategoryPreping, CategoryBreakingNews, CategoryCorpActivity}

// Config holds the application configuration.
type Config struct {
	AppEnv  string
	Debug   bool
	Version string

	DiscordToken   string
	DiscordGuildID string   // Empty registers commands globally
	PingRoleIDs    []string // Empty allows every member to post pings

	TelegramBotToken string
	Telegram         TelegramRouting

	Language     string
	LastPingFile string
	SentryDSN    string

	MongoDBURI      string
	MongoDBDatabase string
}

// TelegramDestination is a chat and an optional forum topic inside it.
type TelegramDestination struct {
	ChatID  string
	TopicID *int
}

// TelegramRouting maps ping categories to Telegram destinations.
// Chat and topic are resolved independently: category-specific value first,
// then the generic pings fallback, then the global default.
type TelegramRouting struct {
	DefaultChatID  string
	DefaultTopicID *int
	PingsChatID    string
	PingsTopicID   *int
	ChatIDs        map[string]string
	TopicIDs       map[string]int
}

// Resolve returns the destination for the given category.
func (r TelegramRouting) Resolve(category string) TelegramDestination {
	key := strings.ToUpper(category)

	dest := TelegramDestination{ChatID: r.DefaultChatID, TopicID: r.DefaultTopicID}
	if chatID, ok := r.ChatIDs[key]; ok && chatID != "" {
		dest.ChatID = chatID
	} else if r.PingsChatID != "" {
		dest.ChatID = r.PingsChatID
	}

	if topicID, ok := r.TopicIDs[key]; ok {
		dest.TopicID = intPtr(topicID)
	} else if r.PingsTopicID != nil {
		dest.TopicID = intPtr(*r.PingsTopicID)
	}
	return dest
}

// UseMongo reports whether MongoDB should back the ping store and action log.
func (c *Config) UseMongo() bool {
	return c.MongoDBURI != ""
}

// LoadConfig loads configuration from environment variables.
// It attempts to load a .env file if present but prioritizes
// actual environment variables set in the system (e.g., by Docker).
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	debug, _ := strconv.ParseBool(getEnv("DEBUG", "false"))

	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Debug:            debug,
		Version:          getEnv("VERSION", "dev"),
		DiscordToken:     strings.TrimSpace(getEnv("DISCORD_TOKEN", "")),
		DiscordGuildID:   strings.TrimSpace(getEnv("DISCORD_GUILD_ID", "")),
		PingRoleIDs:      splitList(getEnv("PING_ROLE_IDS", "")),
		TelegramBotToken: strings.TrimSpace(getEnv("TELEGRAM_BOT_TOKEN", "")),
		Language:         getEnv("BOT_LANGUAGE", "ru"),
		LastPingFile:     getEnv("LAST_PING_FILE", "last_ping.json"),
		SentryDSN:        getEnv("SENTRY_DSN", ""),
		MongoDBURI:       getEnv("MONGODB_URI", ""),
		MongoDBDatabase:  getEnv("MONGODB_DATABASE", ""),
	}

	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	routing, err := loadTelegramRouting()
	if err != nil {
		return nil, err
	}
	cfg.Telegram = routing

	if cfg.MongoDBURI != "" && cfg.MongoDBDatabase == "" {
		return nil, fmt.Errorf("MONGODB_DATABASE is required when MONGODB_URI is set")
	}
	if cfg.SentryDSN == "" {
		log.Println("Warning: SENTRY_DSN is not set. Error tracking disabled.")
	}

	return cfg, nil
}

// loadTelegramRouting reads the default, fallback and per-category destinations.
func loadTelegramRouting() (TelegramRouting, error) {
	routing := TelegramRouting{
		ChatIDs:  make(map[string]string),
		TopicIDs: make(map[string]int),
	}

	routing.DefaultChatID = firstNonEmpty(getEnv("TELEGRAM_CHAT_ID_DEFAULT", ""), getEnv("TELEGRAM_CHAT_ID", ""))
	if routing.DefaultChatID == "" {
		return routing, fmt.Errorf("TELEGRAM_CHAT_ID_DEFAULT (or TELEGRAM_CHAT_ID) is required")
	}

	defaultTopicKey := "TELEGRAM_TOPIC_ID_DEFAULT"
	defaultTopic := strings.TrimSpace(getEnv(defaultTopicKey, ""))
	if defaultTopic == "" {
		defaultTopicKey = "TELEGRAM_TOPIC_ID"
		defaultTopic = strings.TrimSpace(getEnv(defaultTopicKey, ""))
	}
	topic, err := parseTopic(defaultTopicKey, defaultTopic)
	if err != nil {
		return routing, err
	}
	routing.DefaultTopicID = topic

	routing.PingsChatID = strings.TrimSpace(getEnv("TELEGRAM_CHAT_ID_"+pingsFallbackSuffix, ""))
	pingsTopicKey := "TELEGRAM_TOPIC_ID_" + pingsFallbackSuffix
	if routing.PingsTopicID, err = parseTopic(pingsTopicKey, getEnv(pingsTopicKey, "")); err != nil {
		return routing, err
	}

	for _, category := range Categories {
		if chatID := strings.TrimSpace(getEnv("TELEGRAM_CHAT_ID_"+category, "")); chatID != "" {
			routing.ChatIDs[category] = chatID
		}
		topicKey := "TELEGRAM_TOPIC_ID_" + category
		topic, err := parseTopic(topicKey, getEnv(topicKey, ""))
		if err != nil {
			return routing, err
		}
		if topic != nil {
			routing.TopicIDs[category] = *topic
		}
	}
	return routing, nil
}

// parseTopic parses an optional integer topic id; blank means unset.
func parseTopic(key, raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer if set: %w", key, err)
	}
	return &v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func intPtr(v int) *int {
	return &v
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
