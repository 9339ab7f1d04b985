// Package config loads reportwatch settings from a TOML file.
//
// # Configuration Discovery
//
// Load follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/reportwatch/config.toml
//  3. If the file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or empty, use defaults
//  5. REPORTWATCH_API_TOKEN, when set, replaces api_token
//
// # Default Values
//
//   - API endpoint: http://127.0.0.1:8080
//   - Poll interval: 2500ms (first wait; later waits grow by 500ms up to 5s)
//   - Max wait: 120000ms
//   - Request timeout: 15000ms per attempt
//   - Max retries: 3
//   - State directory: ~/.local/share/reportwatch
//
// # TOML Format
//
//	api_url = "https://reports.example.com"
//	api_token = "..."
//	poll_interval_ms = 2500
//	max_wait_ms = 120000
//	request_timeout_ms = 15000
//	max_retries = 3
//	state_dir = "~/.local/share/reportwatch"
//
// Every field is optional. Tilde expansion is performed for state_dir.
// The log file (reportwatch.log) and job history (history.db) live in state_dir.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - Invalid TOML or a negative max_retries ("parse config: ...")
package config
