package game

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// Sprite is a stable identifier the client maps to an image. Tiles, items and
// monsters use plain names; player bodies and banner letters use the computed
// forms player_<colour>-<letter> and emptyletter-<char>.
type Sprite string

// spriteColours is the palette player sprites are drawn from.
var spriteColours = []string{"r", "g", "b", "c", "m", "y", "lr", "lg", "lb", "lc", "lm", "ly", "a"}

// PlayerSprite builds a player body sprite from a palette colour and an ASCII
// letter. Returns false for anything outside the palette or alphabet.
func PlayerSprite(colour string, letter rune) (Sprite, bool) {
	valid := false
	for _, c := range spriteColours {
		if c == colour {
			valid = true
			break
		}
	}
	if !valid || letter > unicode.MaxASCII || !unicode.IsLetter(letter) {
		return "", false
	}
	return Sprite(fmt.Sprintf("player_%s-%c", colour, unicode.ToLower(letter))), true
}

// LetterSprite builds a banner letter sprite for any printable ASCII char
// except the space.
func LetterSprite(letter rune) (Sprite, bool) {
	if letter > unicode.MaxASCII || !unicode.IsGraphic(letter) || letter == ' ' {
		return "", false
	}
	return Sprite(fmt.Sprintf("emptyletter-%c", letter)), true
}

// SpriteForName derives a player sprite from a registered name: the colour is
// picked by hashing the name over the palette, the letter is the name's first
// ASCII letter.
func SpriteForName(name string) Sprite {
	h := fnv.New32a()
	h.Write([]byte(name))
	colour := spriteColours[int(h.Sum32())%len(spriteColours)]

	letter := 'x'
	for _, r := range strings.ToLower(name) {
		if r <= unicode.MaxASCII && unicode.IsLetter(r) {
			letter = r
			break
		}
	}
	sprite, _ := PlayerSprite(colour, letter)
	return sprite
}
