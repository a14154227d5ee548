package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"quantval/pkg/api/valuation"
	"quantval/pkg/core/store"
)

// ServerConfig is the shape of config/server.yaml.
type ServerConfig struct {
	Port        int  `yaml:"port"`
	PersistRuns bool `yaml:"persist_runs"`
}

func main() {
	// Load environment variables
	godotenv.Load()

	cfg := ServerConfig{Port: 8080}
	if configData, err := os.ReadFile("config/server.yaml"); err == nil {
		if err := yaml.Unmarshal(configData, &cfg); err != nil {
			fmt.Printf("[WARNING] Bad config/server.yaml, using defaults: %v\n", err)
		}
	} else {
		fmt.Println("[CONFIG] No config/server.yaml found, using defaults")
	}

	// Run persistence is optional: without a database the API still serves
	// every analysis, it just stops returning run ids.
	var repo *store.RunRepo
	if cfg.PersistRuns {
		if err := store.InitDB(context.Background()); err != nil {
			fmt.Printf("[WARNING] Run persistence disabled: %v\n", err)
		} else {
			repo = store.NewRunRepo()
			defer store.Close()
			fmt.Println("[STORE] Run persistence enabled")
		}
	}

	// Valuation endpoints
	valuation.InitHandler(repo)
	http.HandleFunc("/api/valuation/dcf", valuation.HandleDCF)
	http.HandleFunc("/api/valuation/sensitivity", valuation.HandleSensitivity)
	http.HandleFunc("/api/valuation/scenarios", valuation.HandleScenarios)
	http.HandleFunc("/api/valuation/montecarlo", valuation.HandleMonteCarlo)
	http.HandleFunc("/api/valuation/run", valuation.HandleRun)

	addr := fmt.Sprintf(":%d", cfg.Port)
	fmt.Printf("API server starting on %s...\n", addr)
	fmt.Println("  - POST /api/valuation/dcf")
	fmt.Println("  - POST /api/valuation/sensitivity")
	fmt.Println("  - POST /api/valuation/scenarios")
	fmt.Println("  - POST /api/valuation/montecarlo")
	fmt.Println("  - GET  /api/valuation/run?id=<uuid>")

	if err := http.ListenAndServe(addr, nil); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
