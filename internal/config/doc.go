// Package config defines configuration structures for the saturator CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (SATURATOR_ prefix)
//   - YAML configuration file
//
// Later sources override earlier ones: defaults, file, environment, flags.
//
// # File Format
//
//	sources:
//	  - https://speed.cloudflare.com/__down?bytes=104857600
//	  - https://proof.ovh.net/files/100Mb.dat
//	workers_per_source: 50
//	chunk_size: 2MB
//	report_interval: 1      # seconds, or a duration such as 500ms
//	timeout: 10s
//	retry_pause: 100ms
//	grace_period: 10s
//	http2: false
//	force_close: true
//	log_level: warn
package config
