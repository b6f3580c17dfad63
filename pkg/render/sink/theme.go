package sink

// Theme holds the colours and stroke widths shared by every sink.
type Theme struct {
	Background     string
	HeaderBG       string
	HeaderText     string
	TableBG        string
	TableBorder    string
	ColumnText     string
	TypeText       string
	PKColor        string
	RelationStroke string
	RelationWidth  float64
}

// DefaultTheme is the standard blue-header look.
var DefaultTheme = Theme{
	Background:     "#f5f5f5",
	HeaderBG:       "#3498db",
	HeaderText:     "#ffffff",
	TableBG:        "#ffffff",
	TableBorder:    "#cccccc",
	ColumnText:     "#333333",
	TypeText:       "#888888",
	PKColor:        "#e74c3c",
	RelationStroke: "#666666",
	RelationWidth:  1.5,
}
