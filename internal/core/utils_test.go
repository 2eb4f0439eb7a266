package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinMapKeys(t *testing.T) {
	m := map[string]struct{}{"warn": {}, "debug": {}, "info": {}}
	assert.Equal(t, "debug, info, warn", JoinMapKeys(m))
	assert.Equal(t, "", JoinMapKeys(map[int]struct{}{}))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"shorter", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 5, "hello..."},
		{"multibyte", "héllo wörld", 4, "héll..."},
		{"zero", "hello", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.n))
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("GENESIS_SAMPLE_KEY", "prefixed")
	assert.Equal(t, "prefixed", GetEnv("SAMPLE_KEY"))

	t.Setenv("SAMPLE_KEY", "plain")
	assert.Equal(t, "plain", GetEnv("SAMPLE_KEY"))
}
