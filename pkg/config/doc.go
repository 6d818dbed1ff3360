// Package config provides configuration management for the connector and its
// destinations.
//
// # Usage
//
//	cfg, err := config.LoadBaseConfig("source.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	src, err := config.ParseHTTPSourceConfig(cfg)
//
// ## Environment Variable Substitution
//
//	# source.yaml
//	name: characters
//	type: rickmorty
//	security:
//	  auth_type: bearer
//	  credentials:
//	    base_url: https://rickandmortyapi.com/api/
//	    start_page: "1"
//	    api_token: ${RICKMORTY_TOKEN}
//
// JSON files are accepted as well since YAML is a superset of JSON.
// Durations use Go syntax ("30s", "2m").
package config
