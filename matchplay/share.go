package matchplay

import (
	"fmt"
	"strings"
)

// FormatLineupShare renders a draft as the WhatsApp announcement the group
// expects: both squads, then the waiting squads in queue order.
func FormatLineupShare(lineup *Lineup, teamSize int) string {
	var b strings.Builder

	b.WriteString("⚽ *TIMES DEFINIDOS*\n\n🔴 *TIME VERMELHO*")
	for _, p := range lineup.Red {
		b.WriteString("\n🔴 ")
		b.WriteString(p.Name)
	}

	b.WriteString("\n\n🔵 *TIME AZUL*")
	for _, p := range lineup.Blue {
		b.WriteString("\n🔵 ")
		b.WriteString(p.Name)
	}

	b.WriteString("\n\n------------------\nPRÓXIMOS:")
	if len(lineup.Queue) == 0 {
		b.WriteString("\n(Sem fila)")
		return b.String()
	}

	for i, p := range lineup.Queue {
		if i%teamSize == 0 {
			fmt.Fprintf(&b, "\n⏳ *Time %d*:", i/teamSize+3)
		}
		b.WriteString("\n▫️ ")
		b.WriteString(p.Name)
	}
	return b.String()
}
