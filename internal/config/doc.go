// Package config provides configuration structures and utilities for
// WebStrike. It defines the main options for tool selection, execution
// limits, report generation, and result shipping.
package config
