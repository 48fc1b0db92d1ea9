// Package config loads configuration for services that embed the dispatch
// client.
//
// It uses Viper to read a YAML file and godotenv to load a .env file, then
// overlays environment variables. Nested keys are addressed with
// underscores, so DISPATCH_READ_BUFFER_SIZE sets dispatch.read_buffer_size.
// An optional prefix restricts which variables are considered:
//
//	var s dispatch.Settings
//	err := config.LoadConfig("billing-sdk", &s, config.WithEnvPrefix("BILLING"))
package config
