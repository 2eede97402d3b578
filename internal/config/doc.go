// Package config loads the orchestrator settings from environment
// variables.
//
// Defaults target local development: the in-memory commerce backend, no
// Redis, and template replies when no LLM key is set. The Policy section
// is only the baseline; overrides from the policy source are applied on
// top of it at runtime.
//
// Load parses and validates once at process start:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	addr := cfg.GetHTTPAddr()
package config
