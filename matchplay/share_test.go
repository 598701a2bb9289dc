package matchplay

import (
	"strings"
	"testing"

	"github.com/gabnunesdev/futmais-app/models"
	"github.com/stretchr/testify/assert"
)

func TestFormatLineupShare(t *testing.T) {
	lineup := &Lineup{
		Red:  []models.Player{{ID: "a", Name: "Ana"}, {ID: "b", Name: "Bia"}},
		Blue: []models.Player{{ID: "c", Name: "Caio"}, {ID: "d", Name: "Davi"}},
		Queue: []models.Player{
			{ID: "e", Name: "Edu"}, {ID: "f", Name: "Fabi"}, {ID: "g", Name: "Gui"},
		},
	}

	text := FormatLineupShare(lineup, 2)

	assert.True(t, strings.HasPrefix(text, "⚽ *TIMES DEFINIDOS*"))
	assert.Contains(t, text, "🔴 *TIME VERMELHO*\n🔴 Ana\n🔴 Bia")
	assert.Contains(t, text, "🔵 *TIME AZUL*\n🔵 Caio\n🔵 Davi")
	assert.Contains(t, text, "⏳ *Time 3*:\n▫️ Edu\n▫️ Fabi")
	assert.Contains(t, text, "⏳ *Time 4*:\n▫️ Gui")
	assert.NotContains(t, text, "(Sem fila)")
}

func TestFormatLineupShareEmptyQueue(t *testing.T) {
	lineup := &Lineup{
		Red:  []models.Player{{ID: "a", Name: "Ana"}},
		Blue: []models.Player{{ID: "b", Name: "Bia"}},
	}

	text := FormatLineupShare(lineup, 6)
	assert.Contains(t, text, "PRÓXIMOS:\n(Sem fila)")
}
