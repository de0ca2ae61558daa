// Package store provides per-unit review state stores.
package store

import "github.com/ZaguanLabs/redline"

// StateStore is an alias to the main package interface.
type StateStore = redline.StateStore

// UnitState is an alias to the main package type.
type UnitState = redline.UnitState
