package config_test

import (
	"fmt"
	"log"
	"time"

	"github.com/ajitpratap0/nebula-rickmorty/pkg/config"
)

// ExampleNewBaseConfig demonstrates creating a new base configuration
// with default values.
func ExampleNewBaseConfig() {
	cfg := config.NewBaseConfig("characters", "rickmorty")

	fmt.Printf("Batch Size: %d\n", cfg.Performance.BatchSize)
	fmt.Printf("Connection Timeout: %s\n", cfg.Timeouts.Connection)
	fmt.Printf("Request Timeout: %s\n", cfg.Timeouts.Request)

	// Output:
	// Batch Size: 100
	// Connection Timeout: 10s
	// Request Timeout: 30s
}

// ExampleBaseConfig_Validate shows how to validate a configuration
// before using it.
func ExampleBaseConfig_Validate() {
	cfg := config.NewBaseConfig("characters-json", "json")
	cfg.Performance.BatchSize = 500
	cfg.Timeouts.Request = 2 * time.Minute

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fmt.Println("Configuration is valid!")

	// Output:
	// Configuration is valid!
}

// ExampleParseHTTPSourceConfig shows the typed source settings view.
func ExampleParseHTTPSourceConfig() {
	cfg := config.NewBaseConfig("characters", "rickmorty")
	cfg.Security.Credentials["start_page"] = "3"

	src, err := config.ParseHTTPSourceConfig(cfg)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(src.StartPage)
	fmt.Println(src.URLFor("character"))

	// Output:
	// 3
	// https://rickandmortyapi.com/api/character
}
