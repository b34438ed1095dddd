// Package model defines the data model shared by the keystone engine:
// branches, commits, change sets, locks and lock domains, along with the
// error taxonomy surfaced by every component.
package model
