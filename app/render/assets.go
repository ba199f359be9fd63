package render

import (
	_ "embed"
)

// ScriptPath is where the card activation script is served.
const ScriptPath = "/_edgeboard/cards.js"

//go:embed assets/cards.js
var cardsScript []byte

func CardsScript() []byte {
	return cardsScript
}
