package editor

import (
	"encoding/json"

	"github.com/matzehuels/erdraw/pkg/erd"
	"github.com/matzehuels/erdraw/pkg/errors"
)

// MessageType is the "type" discriminator of an editor message.
type MessageType string

const (
	TypeTableMoved MessageType = "table_moved"
	TypeSaveLayout MessageType = "save_layout"
	TypeExportPNG  MessageType = "export_png"
)

// Message is an event exchanged between the editor front end and its host.
type Message interface {
	Type() MessageType
}

// TableMoved reports that a drag finished with the table at (X, Y).
// TableID is the table's "schema.name".
type TableMoved struct {
	TableID string  `json:"table_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// SaveLayout carries every placed table's position.
type SaveLayout struct {
	Tables map[string]erd.Point `json:"tables"`
}

// ExportPNG carries a rendered snapshot as a "data:image/png;base64," URL.
type ExportPNG struct {
	DataURL string `json:"data_url"`
}

func (TableMoved) Type() MessageType { return TypeTableMoved }
func (SaveLayout) Type() MessageType { return TypeSaveLayout }
func (ExportPNG) Type() MessageType  { return TypeExportPNG }

// ParseMessage decodes a JSON message, dispatching on its "type" field.
// Unknown types and missing required fields are rejected with
// [errors.ErrCodeInvalidMessage].
func ParseMessage(data []byte) (Message, error) {
	var env struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidMessage, err, "parse message")
	}

	switch env.Type {
	case TypeTableMoved:
		var m struct {
			TableID *string  `json:"table_id"`
			X       *float64 `json:"x"`
			Y       *float64 `json:"y"`
		}
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidMessage, err, "parse %s", env.Type)
		}
		if m.TableID == nil || m.X == nil || m.Y == nil {
			return nil, errors.New(errors.ErrCodeInvalidMessage, "%s requires table_id, x and y", env.Type)
		}
		return TableMoved{TableID: *m.TableID, X: *m.X, Y: *m.Y}, nil

	case TypeSaveLayout:
		var m SaveLayout
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidMessage, err, "parse %s", env.Type)
		}
		if m.Tables == nil {
			return nil, errors.New(errors.ErrCodeInvalidMessage, "%s requires tables", env.Type)
		}
		return m, nil

	case TypeExportPNG:
		var m struct {
			DataURL *string `json:"data_url"`
		}
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidMessage, err, "parse %s", env.Type)
		}
		if m.DataURL == nil {
			return nil, errors.New(errors.ErrCodeInvalidMessage, "%s requires data_url", env.Type)
		}
		return ExportPNG{DataURL: *m.DataURL}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidMessage, "unknown message type %q", env.Type)
}

// MarshalMessage encodes m with its "type" field.
func MarshalMessage(m Message) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	head, _ := json.Marshal(m.Type())
	out := append([]byte(`{"type":`), head...)
	if len(body) > 2 {
		out = append(out, ',')
		out = append(out, body[1:]...)
	} else {
		out = append(out, '}')
	}
	return out, nil
}
