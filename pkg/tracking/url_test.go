package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveSessionID(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{"session id stripped", "/a/b;jsessionid=XYZ", "/a/b"},
		{"no separator unchanged", "/a/b", "/a/b"},
		{"separator at start", ";jsessionid=X", ""},
		{"only first separator matters", "/a;x=1;y=2", "/a"},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RemoveSessionID(tt.uri))
		})
	}
}

func TestRemoveSessionID_Idempotent(t *testing.T) {
	inputs := []string{"/a/b;jsessionid=XYZ", "/a/b", ";jsessionid=X"}
	for _, uri := range inputs {
		once := RemoveSessionID(uri)
		assert.Equal(t, once, RemoveSessionID(once))
	}
}
