package models_test

import (
	"testing"

	"github.com/pushp314/logiquest-backend/internal/database/dbtest"
	"github.com/pushp314/logiquest-backend/internal/models"
	"github.com/pushp314/logiquest-backend/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONScan(t *testing.T) {
	tests := []struct {
		name string
		src  interface{}
		want string
	}{
		{"bytes", []byte(`{"a":1}`), `{"a":1}`},
		{"string", `[1,2]`, `[1,2]`},
		{"legacy integer", int64(42), `42`},
		{"legacy float", 1.5, `1.5`},
		{"legacy bool", true, `true`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var j models.JSON
			require.NoError(t, j.Scan(tt.src))
			assert.JSONEq(t, tt.want, string(j))
		})
	}

	var j models.JSON
	require.NoError(t, j.Scan(nil))
	assert.Nil(t, j)
	assert.Error(t, j.Scan(struct{}{}))
	assert.Error(t, j.Scan([]byte(`{not json`)))
}

func TestJSONScalarsSurviveSQLite(t *testing.T) {
	db := dbtest.New(t)

	for _, doc := range []string{`42`, `true`, `"x"`, `{"grid":[[1]]}`} {
		puzzle := models.Puzzle{
			ID:          utils.GenerateID(),
			Title:       doc,
			Type:        models.PuzzleTypeLogic,
			Difficulty:  models.DifficultyEasy,
			Solution:    models.JSON(doc),
			IsPublished: true,
		}
		require.NoError(t, db.Create(&puzzle).Error)

		var loaded models.Puzzle
		require.NoError(t, db.First(&loaded, "id = ?", puzzle.ID).Error)
		assert.Equal(t, doc, string(loaded.Solution))
	}
}

func TestJSONMarshalsRaw(t *testing.T) {
	sub := models.JSON(`{"answer":[3,1,2]}`)
	out, err := sub.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":[3,1,2]}`, string(out))

	var back models.JSON
	require.NoError(t, back.UnmarshalJSON([]byte(`7`)))
	assert.Equal(t, "7", string(back))
}
