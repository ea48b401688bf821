// Package models contains GORM persistence models for the SQL snapshot
// backends. Domain types stay free of ORM tags; the models convert to and
// from them.
package models
