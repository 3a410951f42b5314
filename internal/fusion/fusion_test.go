package fusion

import (
	"testing"

	"github.com/law-makers/scentcrawl/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestFuse_DynamicWins(t *testing.T) {
	static := models.Record{"Marque": "A", "X": "html"}
	dynamic := models.Record{"Fragrance": "F", "X": "xhr"}

	out := Fuse(static, dynamic)

	assert.Equal(t, models.Record{"Marque": "A", "Fragrance": "F", "X": "xhr"}, out)
	assert.Equal(t, "html", static["X"], "inputs must not be modified")
}

func TestFuse_Totality(t *testing.T) {
	nonEmpty := models.Record{"Marque": "A", "Ingredients": []string{"musc"}}

	tests := []struct {
		name    string
		static  models.Record
		dynamic models.Record
		want    models.Record
	}{
		{"both nil", nil, nil, models.Record{}},
		{"both empty", models.Record{}, models.Record{}, models.Record{}},
		{"static only", nonEmpty, nil, nonEmpty},
		{"dynamic only", models.Record{}, nonEmpty, nonEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Fuse(tt.static, tt.dynamic)
			assert.NotNil(t, out)
			assert.Equal(t, tt.want, out)
		})
	}
}
