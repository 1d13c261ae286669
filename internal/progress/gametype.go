package progress

import (
	"fmt"
	"strings"
)

// GameType identifies one of the mini-game families. The set is closed.
type GameType string

const (
	GameVocabulary    GameType = "vocabulary"
	GameComprehension GameType = "comprehension"
	GameMemory        GameType = "memory"
	GamePattern       GameType = "pattern"
)

// GameTypes returns every game type in a fixed order.
func GameTypes() []GameType {
	return []GameType{GameVocabulary, GameComprehension, GameMemory, GamePattern}
}

// gameAliases maps the identifiers screens send to their game family.
var gameAliases = map[string]GameType{
	"vocabulary":          GameVocabulary,
	"vocabulary-matching": GameVocabulary,
	"comprehension":       GameComprehension,
	"comprehension-quiz":  GameComprehension,
	"story-quiz":          GameComprehension,
	"memory":              GameMemory,
	"memory-match":        GameMemory,
	"memory-game":         GameMemory,
	"pattern":             GamePattern,
	"pattern-recognition": GamePattern,
	"pattern-game":        GamePattern,
}

// ParseGameType resolves a game identifier to its family. Unknown names
// return ErrUnknownGameType.
func ParseGameType(name string) (GameType, error) {
	if gt, ok := gameAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return gt, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGameType, name)
}

// basePoints is the reward for a single play before the score multiplier.
func (gt GameType) basePoints() int {
	switch gt {
	case GameVocabulary:
		return 5
	case GameComprehension:
		return 8
	case GameMemory:
		return 6
	case GamePattern:
		return 7
	}
	return 0
}
