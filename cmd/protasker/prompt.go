package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
)

// prompter asks for values the user left off the command line.
type prompter interface {
	Input(title string, value *string, secret bool) error
	Select(title string, options []string, value *string) error
	Confirm(title string) (bool, error)
}

var errNotInteractive = errors.New("stdin is not a terminal")

// huhPrompter runs one single-field huh form per question.
type huhPrompter struct{}

func (huhPrompter) Input(title string, value *string, secret bool) error {
	if !isInteractive() {
		return errNotInteractive
	}
	input := huh.NewInput().Title(title).Value(value)
	if secret {
		input = input.EchoMode(huh.EchoModePassword)
	}
	if err := huh.NewForm(huh.NewGroup(input)).Run(); err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

func (huhPrompter) Select(title string, options []string, value *string) error {
	if !isInteractive() {
		return errNotInteractive
	}
	sel := huh.NewSelect[string]().
		Title(title).
		Options(huh.NewOptions(options...)...).
		Value(value)
	if err := huh.NewForm(huh.NewGroup(sel)).Run(); err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

func (huhPrompter) Confirm(title string) (bool, error) {
	if !isInteractive() {
		return false, errNotInteractive
	}
	var ok bool
	confirm := huh.NewConfirm().Title(title).Value(&ok)
	if err := huh.NewForm(huh.NewGroup(confirm)).Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return ok, nil
}

// isInteractive reports whether stdin is a terminal (not piped).
func isInteractive() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// ask fills *value through p when it is empty. flag names the command-line
// flag that would have supplied it, for the non-interactive error.
func ask(p prompter, flag, title string, value *string, secret bool) error {
	if *value != "" {
		return nil
	}
	if err := p.Input(title, value, secret); err != nil {
		if errors.Is(err, errNotInteractive) {
			return fmt.Errorf("missing --%s", flag)
		}
		return err
	}
	return nil
}
