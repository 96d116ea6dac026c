package storage

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageKeyLayout(t *testing.T) {
	key := storageKey()
	assert.Regexp(t, regexp.MustCompile(`^avatars/\d{4}/\d{2}/\d{2}/[0-9a-f-]{36}$`), key)
}

func TestStorageKeysUnique(t *testing.T) {
	assert.NotEqual(t, storageKey(), storageKey())
}
