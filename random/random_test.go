package random_test

import (
	"strings"
	"testing"

	"anarchy.ttfm/payin/random"
	"github.com/stretchr/testify/assert"
)

func Test_String(t *testing.T) {
	assertions := assert.New(t)

	s := random.String(random.CryptoRand(), random.CharsetAlphaNumeric, 16)
	assertions.Len(s, 16)
	for _, r := range s {
		assertions.True(strings.ContainsRune(random.CharsetAlphaNumeric, r))
	}

	assertions.Empty(random.String(random.CryptoRand(), random.CharsetDigits, 0))
}
