// Package editor holds the state behind the interactive diagram editor.
//
// A [Session] owns one diagram and a [Viewport]. Pointer events arrive in
// canvas pixels and are mapped to world coordinates through the viewport:
//
//	world = (screen - pan) / scale
//
// Pressing on a table starts a drag that keeps the grab offset constant;
// pressing on empty canvas pans. Releasing after a drag persists all
// positions to the session's [layoutfile.Store] and emits a [TableMoved]
// event to the [Notifier].
//
// # Messages
//
// The front end and the host exchange JSON messages tagged by "type":
//
//	{"type":"table_moved","table_id":"public.users","x":150,"y":250}
//	{"type":"save_layout","tables":{"public.users":{"x":50,"y":50}}}
//	{"type":"export_png","data_url":"data:image/png;base64,..."}
//
// [ParseMessage] decodes them and [Session.Handle] applies them. Position
// messages that name unknown tables are ignored; an export writes the PNG
// beside the source file (see [PNGPath]).
package editor
