package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		path     string
		expected string
	}{
		{name: "plain", base: "http://localhost:8000", path: "products", expected: "http://localhost:8000/products"},
		{name: "both slashes", base: "http://localhost:8000/", path: "/products", expected: "http://localhost:8000/products"},
		{name: "empty path", base: "http://localhost:8000/", path: "", expected: "http://localhost:8000"},
		{name: "nested base", base: "http://api/v1", path: "/products", expected: "http://api/v1/products"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, JoinURL(tt.base, tt.path))
		})
	}
}

func TestEnvOr(t *testing.T) {
	t.Setenv("STATS_UTILS_TEST", "")
	assert.Equal(t, "fallback", EnvOr("STATS_UTILS_TEST", "fallback"))

	t.Setenv("STATS_UTILS_TEST", "set")
	assert.Equal(t, "set", EnvOr("STATS_UTILS_TEST", "fallback"))
}

func TestGetHostIsStable(t *testing.T) {
	assert.NotEmpty(t, GetHost())
	assert.Equal(t, GetHost(), GetHost())
}
