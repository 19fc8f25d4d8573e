package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/citecheck/internal/common"
	"github.com/joseph-ayodele/citecheck/internal/oracle"
	"github.com/joseph-ayodele/citecheck/internal/oracle/openai"
	"github.com/joseph-ayodele/citecheck/internal/verify"
)

// verifytext runs stage 2 only: submits a plain-text file to the citation
// oracle and prints the records plus summary as JSON.
func main() {
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found")
	}

	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "verifytext <file.txt>")
		os.Exit(2)
	}
	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		logger.Error("read file", "path", flag.Arg(0), "error", err)
		os.Exit(1)
	}

	cfg := common.LoadConfig()
	client := openai.NewClient(openai.Config{
		APIKey:        cfg.Oracle.APIKey,
		BaseURL:       cfg.Oracle.BaseURL,
		Model:         cfg.Oracle.Model,
		Temperature:   cfg.Oracle.Temperature,
		Timeout:       cfg.Oracle.Timeout,
		MaxInputChars: cfg.Oracle.MaxInputChars,
	}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	v := verify.NewVerifier(client, logger)
	res := v.Submit(ctx, oracle.VerifyRequest{Text: string(data)})
	if res.Err != nil {
		logger.Error("verification failed", "error", res.Err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(map[string]any{
		"citations": res.Records,
		"summary":   res.Summary,
	}, "", "  ")
	fmt.Println(string(out))
}
