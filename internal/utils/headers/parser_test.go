package headers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want map[string]string
	}{
		{"basic", []string{"Accept-Language: fr-FR", "Referer: https://www.wikiparfum.com/"}, map[string]string{"Accept-Language": "fr-FR", "Referer": "https://www.wikiparfum.com/"}},
		{"malformed dropped", []string{"BadHeader", ": empty key"}, map[string]string{}},
		{"colon in value", []string{"X-Time: 12:30"}, map[string]string{"X-Time": "12:30"}},
		{"last wins", []string{"DNT: 0", "DNT: 1"}, map[string]string{"DNT": "1"}},
		{"nil", nil, map[string]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseHeaders(tt.in))
		})
	}
}
