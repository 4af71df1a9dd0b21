package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/fincat-app/finchat/assistant"
	"github.com/fincat-app/finchat/finance"
	"github.com/fincat-app/finchat/fintools"
	"github.com/fincat-app/finchat/settings"
	"github.com/fincat-app/finchat/store"
	"github.com/fincat-app/finchat/supabase"
)

func main() {
	var (
		dbPath         = flag.String("db", "finchat.db", "sqlite database path")
		settingsSource = flag.String("settings-source", "auto", "settings source: env|file|auto")
		settingsPath   = flag.String("settings-file", "", "settings file path (default: ~/.finchat/settings.json)")
		model          = flag.String("model", "", "model id override")
		input          = flag.String("input", "", "ask a single question and exit")
	)
	flag.Parse()

	_ = godotenv.Load()

	provider, err := settings.NewProvider(settings.Source(*settingsSource), *settingsPath)
	if err != nil {
		log.Fatalf("invalid settings-source: %v", err)
	}
	cfg, err := provider.Load(context.Background())
	if err != nil {
		log.Fatalf("load settings failed: %v", err)
	}
	if *model != "" {
		cfg.Model = *model
	}

	db, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("open store failed: %v", err)
	}
	defer db.Close()

	cache := finance.NewCache()
	if err := db.Hydrate(cache); err != nil {
		log.Fatalf("load transactions failed: %v", err)
	}

	var remote *supabase.Client
	if cfg.HasSupabase() {
		remote, err = supabase.NewClient(supabase.Config{
			URL:    cfg.SupabaseURL,
			APIKey: cfg.SupabaseKey,
		})
		if err != nil {
			log.Fatalf("supabase client failed: %v", err)
		}
	}

	a, err := assistant.New(assistant.Config{
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
	}, fintools.New(cache, remote))
	if err != nil {
		log.Fatalf("assistant init failed: %v", err)
	}

	events := assistant.Events{
		OnDelta: func(delta string) { fmt.Print(delta) },
		OnToolCall: func(name string) {
			fmt.Printf("\n[调用工具 %s]\n", name)
		},
	}

	if *input != "" {
		if _, err := a.Ask(context.Background(), *input, events); err != nil {
			log.Fatalf("ask failed: %v", err)
		}
		fmt.Println()
		return
	}

	fmt.Printf("已载入 %d 条账目（年份 %d），输入问题开始对话，exit 退出。\n",
		len(cache.All()), cache.SelectedYear())
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("你: ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}
		fmt.Print("助手: ")
		if _, err := a.Ask(context.Background(), question, events); err != nil {
			fmt.Printf("出错了: %v\n", err)
			continue
		}
		fmt.Println()
	}
}
