package entity

// Category agrupa productos del catálogo. Un producto referencia a lo sumo una.
type Category struct {
	ID          string
	Name        string
	Description string
}
