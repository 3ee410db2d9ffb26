// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package combine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidUTF8(t *testing.T) {
	for _, test := range []struct {
		data string
		want int
	}{
		{"", -1},
		{"#define G 9.81\n", -1},
		{"// résumé ∂h/∂t 🌊\n", -1},
		{"�", -1}, // an encoded replacement character is valid
		{"\xff", 0},
		{"// r\xe9sum\xe9", 4},
		{"// ∂\xe2\x88", 6}, // truncated sequence
		{"ok\xc0\xafok", 2}, // overlong encoding
		{"\xed\xa0\x80", 0}, // surrogate half
	} {
		assert.Equal(t, test.want, invalidUTF8([]byte(test.data)), "%q", test.data)
	}
}
