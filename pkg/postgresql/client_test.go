package postgresql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildConnectionString(t *testing.T) {
	testCases := []struct {
		name     string
		config   Config
		expected string
	}{
		{
			name: "fields",
			config: Config{
				Host: "db", Port: 5433, Database: "matcha", Username: "svc", Password: "secret", SSLMode: "disable",
			},
			expected: "postgres://svc:secret@db:5433/matcha?sslmode=disable",
		},
		{
			name:     "url wins",
			config:   Config{URL: "postgres://u:p@h:1/d", Host: "ignored"},
			expected: "postgres://u:p@h:1/d",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, buildConnectionString(tc.config))
		})
	}
}
