package utils

import (
	"strings"
	"unicode"

	"github.com/segmentio/ksuid"
)

func GenKSUID() string {
	return ksuid.New().String()
}

// remove only space symbols
func RemoveSpaceSymbol(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
