// Package db provides the embedded PostgreSQL schema and seed data.
package db

import _ "embed"

// Schema contains the DDL statements for the menu_items and orders tables.
// Every statement is idempotent.
//
//go:embed migrations/001_schema.sql
var Schema string

// SampleMenu is the default menu loaded by seed-db.
//
//go:embed seed/menu.json
var SampleMenu []byte
