package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
)

// NoPromptEnv disables every interactive prompt when set to a non-empty value.
const NoPromptEnv = "GEMORA_NO_PROMPT"

// ErrAborted is returned when the user leaves a prompt with Ctrl+C or Esc.
var ErrAborted = errors.New("prompt aborted")

// ciEnv lists the variables whose presence marks an unattended run.
var ciEnv = []string{NoPromptEnv, "CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "BUILDKITE"}

// Prompt describes a single line of input.
type Prompt struct {
	Title       string
	Placeholder string
	Default     string
	// Secret hides the typed characters.
	Secret bool
	// Validate runs on every change; a non-nil error blocks submission.
	Validate func(string) error
}

// Ask shows p and returns the trimmed answer. Empty answers are rejected.
func Ask(p Prompt) (string, error) {
	value := p.Default
	input := huh.NewInput().
		Title(p.Title).
		Placeholder(p.Placeholder).
		Value(&value).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", strings.ToLower(p.Title))
			}
			if p.Validate != nil {
				return p.Validate(s)
			}
			return nil
		})
	if p.Secret {
		input = input.EchoMode(huh.EchoModePassword)
	}

	if err := run(input); err != nil {
		return "", err
	}
	if p.Secret {
		return value, nil
	}
	return strings.TrimSpace(value), nil
}

// AskSecret reads a password without echoing it.
func AskSecret(title string) (string, error) {
	return Ask(Prompt{Title: title, Secret: true})
}

// Confirm asks a yes/no question that defaults to no.
func Confirm(question string) (bool, error) {
	var ok bool
	if err := run(huh.NewConfirm().Title(question).Affirmative("Yes").Negative("No").Value(&ok)); err != nil {
		return false, err
	}
	return ok, nil
}

// Choose lets the user pick one of options, starting on the first.
func Choose(title string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no options for %q", title)
	}
	selected := options[0]
	field := huh.NewSelect[string]().
		Title(title).
		Options(huh.NewOptions(options...)...).
		Value(&selected)
	if err := run(field); err != nil {
		return "", err
	}
	return selected, nil
}

func run(field huh.Field) error {
	err := huh.NewForm(huh.NewGroup(field)).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}
	if err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// ShouldPrompt reports whether commands may ask for missing input.
func ShouldPrompt() bool {
	for _, name := range ciEnv {
		if os.Getenv(name) != "" {
			return false
		}
	}
	return IsInteractive()
}
