package main

import (
	"time"

	"github.com/KILLERTIAN/skillchaseBot/internal/broadcast"
	"github.com/KILLERTIAN/skillchaseBot/internal/promptprofile"
	"github.com/KILLERTIAN/skillchaseBot/internal/statepaths"
	"github.com/KILLERTIAN/skillchaseBot/llm"
	"github.com/KILLERTIAN/skillchaseBot/providers/gemini"
	"github.com/spf13/viper"
)

func initViperDefaults() {
	gen := llm.DefaultGenerationSettings()

	// Model
	viper.SetDefault("llm.model", gemini.DefaultModel)
	viper.SetDefault("llm.endpoint", "")
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("llm.request_timeout", time.Duration(0))
	viper.SetDefault("llm.temperature", gen.Temperature)
	viper.SetDefault("llm.top_p", gen.TopP)
	viper.SetDefault("llm.top_k", gen.TopK)
	viper.SetDefault("llm.max_output_tokens", gen.MaxOutputTokens)

	// Prompt
	viper.SetDefault("prompt.system_instruction_file", promptprofile.DefaultSystemInstructionPath)
	viper.SetDefault("prompt.seed_file", "")

	// Global
	viper.SetDefault("file_state_dir", statepaths.DefaultFileStateDir)
	viper.SetDefault("bus.max_in_flight", 256)

	// Health listener
	viper.SetDefault("server.bind", "")
	viper.SetDefault("server.port", 3000)

	// WhatsApp
	viper.SetDefault("whatsapp.session_db", statepaths.DefaultSessionDBName)
	viper.SetDefault("whatsapp.max_concurrency", 4)
	viper.SetDefault("whatsapp.queue_size", 16)
	viper.SetDefault("whatsapp.qr_terminal", true)

	// .tagall
	viper.SetDefault("tagall.batch_size", broadcast.DefaultBatchSize)
	viper.SetDefault("tagall.delay", broadcast.DefaultDelay)
}
