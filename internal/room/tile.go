package room

// Tile is a single cell of a room grid.
type Tile uint8

const (
	Ground Tile = iota // Walkable floor
	Wall               // Solid wall
)

// String returns the string representation of a Tile
func (t Tile) String() string {
	switch t {
	case Ground:
		return "ground"
	case Wall:
		return "wall"
	default:
		return "unknown"
	}
}

// Rune returns the glyph used when a tile is drawn as text.
func (t Tile) Rune() rune {
	if t == Wall {
		return '#'
	}
	return '.'
}

// Type classifies what a room is used for.
type Type int

const (
	TypeNormal Type = iota
	TypeShop
	TypeBoss
)

// String returns the string representation of a Type
func (t Type) String() string {
	switch t {
	case TypeNormal:
		return "normal"
	case TypeShop:
		return "shop"
	case TypeBoss:
		return "boss"
	default:
		return "unknown"
	}
}

// ParseType converts a string room type to Type. Unknown strings map to TypeNormal.
func ParseType(s string) Type {
	switch s {
	case "shop":
		return TypeShop
	case "boss":
		return TypeBoss
	default:
		return TypeNormal
	}
}
