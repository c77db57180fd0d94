// Package utils exposes reusable helpers consumed by the bp commands.
//
// ConfigurationLoader layers embedded defaults, dotenv files, configuration
// files and environment variables through Viper; LoggerFactory builds the zap
// loggers shared by every command.
package utils
