// Godshot - Espresso Brewing Personalization Engine
// Copyright 2026 The Godshot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/godshot/godshot

// Package config loads and validates application configuration.
//
// Configuration is layered with Koanf v2, later layers overriding
// earlier ones:
//
//  1. Built-in defaults
//  2. Optional YAML config file (config.yaml, or CONFIG_PATH)
//  3. Environment variables
//
// Environment variables map onto nested config paths through an
// explicit table, so only known variables are picked up:
//
//	AGENT_EPSILON=0.2      -> agent.epsilon
//	DUCKDB_PATH=/tmp/g.db  -> database.path
//	HTTP_PORT=9330         -> server.port
//
// The loaded Config is immutable and safe for concurrent reads.
package config
