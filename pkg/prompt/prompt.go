/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/

// Package prompt wraps the interactive confirmations crmstack asks before
// destructive cluster actions.
package prompt

import (
	"errors"

	"github.com/manifoldco/promptui"
)

// Prompter asks the user yes/no and multiple-choice questions. The interface
// exists so drivers can be tested with scripted answers.
type Prompter interface {
	// Confirm asks a yes/no question. Declining, EOF, and a missing
	// terminal all return false: destructive actions need an explicit yes.
	Confirm(label string) bool

	// Choose asks the user to pick one of the options and returns the
	// selected index, or defaultIndex when no terminal is available.
	Choose(label string, options []string, defaultIndex int) int
}

// TTYPrompter implements Prompter with promptui.
type TTYPrompter struct{}

// New creates a terminal-backed Prompter.
func New() *TTYPrompter {
	return &TTYPrompter{}
}

// Confirm implements Prompter.
func (p *TTYPrompter) Confirm(label string) bool {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	_, err := prompt.Run()
	if err != nil {
		// promptui reports "n" as ErrAbort; anything else (no TTY, ^C)
		// also counts as a decline
		return false
	}
	return true
}

// Choose implements Prompter.
func (p *TTYPrompter) Choose(label string, options []string, defaultIndex int) int {
	prompt := promptui.Select{
		Label: label,
		Items: options,
	}
	idx, _, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return defaultIndex
		}
		return defaultIndex
	}
	return idx
}

// Static is a Prompter with fixed answers, for tests and --yes mode.
type Static struct {
	ConfirmAnswer bool
	ChooseAnswer  int
}

// Confirm implements Prompter.
func (s Static) Confirm(string) bool { return s.ConfirmAnswer }

// Choose implements Prompter.
func (s Static) Choose(string, []string, int) int { return s.ChooseAnswer }
