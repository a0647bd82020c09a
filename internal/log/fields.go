// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldJobID    = "job_id"
	FieldCategory = "category"
	FieldHandle   = "handle"
	FieldWatchID  = "watch_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldStrategy  = "strategy"
	FieldStage     = "stage"

	// Path / URL fields
	FieldPath         = "path"
	FieldURL          = "url"
	FieldPlaylistPath = "playlist_path"
	FieldIconPath     = "icon_path"
)
