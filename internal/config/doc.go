// Package config loads, normalizes, and validates audioscribe configuration data.
//
// It supplies repository defaults (25 MiB upload ceiling, 192 kbps / 44.1 kHz
// MP3 normalization, whisper-1 pinned to English), expands user paths
// including tilde shortcuts, reads TOML files, and honours environment
// fallbacks such as OPENAI_API_KEY and OPENAI_BASE_URL.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a canonical language code, and clear validation errors.
package config
