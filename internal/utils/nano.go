package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

// Row ids for keluarga, rumah, marketplace items, accounts and verification
// requests. NIKs are natural keys and never generated.
var NanoidSize = 21

const nanoidAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func NanoID() string {
	return NanoIDSize(NanoidSize)
}

func NanoIDSize(size int) string {
	if size <= 0 {
		size = NanoidSize
	}

	return gonanoid.MustGenerate(nanoidAlphabet, size)
}
