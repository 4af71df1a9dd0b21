package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/fincat-app/finchat/assistant"
	"github.com/fincat-app/finchat/finance"
	"github.com/fincat-app/finchat/fintools"
	"github.com/fincat-app/finchat/settings"
	"github.com/fincat-app/finchat/store"
	"github.com/fincat-app/finchat/supabase"
	"github.com/fincat-app/finchat/webapi"
)

func main() {
	var (
		listen         = flag.String("listen", "127.0.0.1:8080", "listen address")
		dbPath         = flag.String("db", "finchat.db", "sqlite database path")
		settingsSource = flag.String("settings-source", "auto", "settings source: env|file|auto")
		settingsPath   = flag.String("settings-file", "", "settings file path (default: ~/.finchat/settings.json)")
		year           = flag.Int("year", 0, "selected year (default: latest year in the ledger)")
	)
	flag.Parse()

	// .env 不存在时忽略，变量也可以直接来自进程环境
	_ = godotenv.Load()

	provider, err := settings.NewProvider(settings.Source(*settingsSource), *settingsPath)
	if err != nil {
		log.Fatalf("invalid settings-source: %v", err)
	}
	cfg, err := provider.Load(context.Background())
	if err != nil {
		log.Fatalf("load settings failed: %v", err)
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
	if *year != 0 {
		cache.SetSelectedYear(*year)
	}
	log.Printf("[finchat] loaded %d transactions, selected year %d",
		len(cache.All()), cache.SelectedYear())

	var remote *supabase.Client
	if cfg.HasSupabase() {
		remote, err = supabase.NewClient(supabase.Config{
			URL:    cfg.SupabaseURL,
			APIKey: cfg.SupabaseKey,
		})
		if err != nil {
			log.Fatalf("supabase client failed: %v", err)
		}
		log.Printf("[finchat] remote search enabled via %s", cfg.SupabaseURL)
	}

	a, err := assistant.New(assistant.Config{
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
	}, fintools.New(cache, remote))
	if err != nil {
		log.Fatalf("assistant init failed: %v", err)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	webapi.RegisterRoutes(r, webapi.Config{Assistant: a, Cache: cache})

	srv := &http.Server{
		Addr:              *listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("finchat server listening on http://%s", addrForLocalClient(*listen))
	log.Printf("try: curl http://%s/api/summary", addrForLocalClient(*listen))
	log.Printf("try: curl -N http://%s/api/chat -H 'Content-Type: application/json' -d '{\"message\":\"今年的储蓄率是多少？\"}'", addrForLocalClient(*listen))

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Println(err)
	}
}

// addrForLocalClient 把 ":8080" 这类监听地址补成可直接 curl 的形式。
func addrForLocalClient(listen string) string {
	if len(listen) > 0 && listen[0] == ':' {
		return "127.0.0.1" + listen
	}
	return listen
}
