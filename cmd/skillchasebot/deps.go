package main

import (
	"context"
	"log/slog"
	"strings"

	"github.com/KILLERTIAN/skillchaseBot/internal/promptprofile"
	"github.com/KILLERTIAN/skillchaseBot/internal/responder"
	"github.com/KILLERTIAN/skillchaseBot/llm"
	"github.com/KILLERTIAN/skillchaseBot/providers/gemini"
	"github.com/spf13/viper"
)

func generationSettingsFromViper() llm.GenerationSettings {
	return llm.GenerationSettings{
		Temperature:     viper.GetFloat64("llm.temperature"),
		TopP:            viper.GetFloat64("llm.top_p"),
		TopK:            viper.GetInt("llm.top_k"),
		MaxOutputTokens: viper.GetInt("llm.max_output_tokens"),
	}
}

func llmClientFromViper(ctx context.Context) (*gemini.Client, error) {
	return gemini.New(ctx, gemini.Config{
		APIKey:         viper.GetString("llm.api_key"),
		Model:          viper.GetString("llm.model"),
		Endpoint:       viper.GetString("llm.endpoint"),
		RequestTimeout: viper.GetDuration("llm.request_timeout"),
	})
}

// responderFromViper wires the model client, seed and system instruction.
// The default instruction path may be absent; an explicitly configured one
// must exist.
func responderFromViper(ctx context.Context, logger *slog.Logger) (*responder.Responder, error) {
	client, err := llmClientFromViper(ctx)
	if err != nil {
		return nil, err
	}
	seed, err := promptprofile.LoadSeed(viper.GetString("prompt.seed_file"), logger)
	if err != nil {
		return nil, err
	}
	instructionPath := strings.TrimSpace(viper.GetString("prompt.system_instruction_file"))
	required := instructionPath != promptprofile.DefaultSystemInstructionPath
	instruction, err := promptprofile.LoadSystemInstruction(instructionPath, required, logger)
	if err != nil {
		return nil, err
	}
	return responder.New(responder.Options{
		Client:            client,
		Model:             viper.GetString("llm.model"),
		SystemInstruction: instruction,
		Seed:              seed.History(),
		Settings:          generationSettingsFromViper(),
		Logger:            logger,
	})
}
