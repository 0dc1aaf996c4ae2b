// Package models holds the GORM row types. Commerce models mirror the synced
// store collections and are only read by the snapshot engine; snapshot models
// are generation-tagged summary rows plus the per-kind generation pointer.
package models
