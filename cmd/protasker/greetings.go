package main

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/charmbracelet/lipgloss"
)

var farewells = [...]string{
	"The backlog will still be here tomorrow. So will you, probably.",
	"Nothing moved to Done while you were logged out. That's how it works.",
	"Your tasks are saved on the server. Your excuses are not.",
	"In Progress is a state, not a lifestyle.",
	"Go touch grass. The To Do column will wait.",
	"Logged out. The cursor blinks on without you.",
	"Every project starts with one task. Most end with forty.",
	"Done is better than perfect. Logged out is better than neither.",
}

var (
	brandStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ade80")).Bold(true)
	headingStyle = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	quoteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
)

func printFarewell(w io.Writer) {
	msg := farewells[rand.Intn(len(farewells))]
	fmt.Fprintf(w, "Logged out.\n\n  %s\n\n", quoteStyle.Render(msg))
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "%s %s\n", brandStyle.Render("protasker"), version)
}
