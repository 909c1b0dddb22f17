// Package sqlite implements chat feed storage on SQLite.
package sqlite
