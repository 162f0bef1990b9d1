package game

// Item is a pickup lying on the ground. Only player bodies consume items.
type Item uint8

const (
	// ItemHealth refills the collector to max health.
	ItemHealth Item = iota
)

func (i Item) Sprite() Sprite {
	return "health"
}
