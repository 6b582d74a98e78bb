package storage

// Package storage provides SQLite-backed repositories for patients, visits,
// payments, and users, with embedded schema migrations, a serialized
// transaction primitive, and bulk table primitives for backup and restore.
