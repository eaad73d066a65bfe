package connectivity

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/imamik/infrasmoke/internal/provisioning"
	"github.com/imamik/infrasmoke/internal/util/naming"
)

// MatrixTitle is the title of the file download matrix.
const MatrixTitle = "Inter-VMs file download matrix:"

// The renderer has a fixed profile so colored output does not depend on the
// terminal the process runs in.
var (
	renderer     = newRenderer()
	successStyle = renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	failureStyle = renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	successMark  = renderer.NewStyle().Foreground(lipgloss.Color("2"))
	failureMark  = renderer.NewStyle().Foreground(lipgloss.Color("1"))
)

func newRenderer() *lipgloss.Renderer {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.ANSI)
	return r
}

// Render formats m with headers and a legend taken from machines, which must
// be in matrix order. The plain variant contains no escape sequences and is
// what alerts carry; the colored variant is for terminals.
func Render(title string, m *Matrix, machines []provisioning.Machine, colored bool) string {
	abbrs := make([]string, len(machines))
	for i, vm := range machines {
		abbrs[i] = naming.Abbreviation(vm.Hostname)
	}

	var lines []string
	if colored {
		lines = append(lines, "")
	}
	lines = append(lines, title, "   "+strings.Join(abbrs, " "))

	for i := 0; i < m.Size(); i++ {
		cells := make([]string, m.Size())
		for j := range cells {
			cells[j] = cell(m.Get(i, j), colored)
		}
		lines = append(lines, abbrs[i]+" "+strings.Join(cells, "   "))
	}

	for i, vm := range machines {
		lines = append(lines, fmt.Sprintf("%s: %s, %s", abbrs[i], vm.Hostname, vm.Address))
	}

	if colored {
		lines = append(lines, successMark.Render("1")+" - success", failureMark.Render("0")+" - failure")
	} else {
		lines = append(lines, "1 - success", "0 - failure")
	}
	return strings.Join(lines, "\n")
}

func cell(ok, colored bool) string {
	switch {
	case ok && colored:
		return successStyle.Render("1")
	case ok:
		return "1"
	case colored:
		return failureStyle.Render("0")
	default:
		return "0"
	}
}
