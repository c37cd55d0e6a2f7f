package utils

import (
	"encoding/hex"
	"strings"
)

func AreAddressesEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}

// NormalizeAddress is the form addresses are stored and queried in.
func NormalizeAddress(a string) string {
	return strings.ToLower(strings.TrimSpace(a))
}

func ConvertBytesToString(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
