// Package config loads the complyeasy configuration.
//
// Values are layered with koanf, later sources winning:
//
//  1. built-in defaults (Default)
//  2. a YAML file (--config, or complyeasy.yaml in the working directory)
//  3. environment variables prefixed with COMPLY_
//
// Nested keys in environment variables are separated by a double underscore,
// so COMPLY_STORE__DRIVER=redis sets store.driver and
// COMPLY_AUTH__SESSION_TTL=24h sets auth.session_ttl. GEMINI_API_KEY is used
// when ai.api_key is not set.
//
// Example file:
//
//	store:
//	  driver: redis
//	  redis:
//	    addr: localhost:6379
//	    prefix: "complyeasy:"
//	latency:
//	  scale: 0
//	telemetry:
//	  log_level: info
//	  log_format: json
package config
