// Package config loads service configuration.
//
// Defaults come from Default and are overridden by the environment
// variables named in the env struct tags (see EnvMappings), for example
// DOCFLOW_PROVIDER or DOCFLOW_CHAR_CEILING. Provider credentials may also
// be supplied through GEMINI_API_KEY or OPENAI_API_KEY, which the generator
// reads directly when no api key is configured.
package config
