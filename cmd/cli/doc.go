// Package cli builds the bp command-line interface: one subcommand per
// registered check plus workflow, watch and check-before-release, sharing a
// Viper-backed configuration and a zap logger.
package cli
