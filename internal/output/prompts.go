package output

import (
	"errors"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/mattn/go-isatty"

	braiderrors "braid.dev/braid/internal/errors"
)

// IsInteractive reports whether prompts may be shown: stdin and stdout are
// terminals and BRAID_NO_INTERACTIVE is unset
func IsInteractive() bool {
	if os.Getenv("BRAID_NO_INTERACTIVE") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

func checkInteractiveAllowed() error {
	if !IsInteractive() {
		return braiderrors.ErrInteractiveDisabled
	}
	return nil
}

// PromptConfirm asks a yes/no question
func PromptConfirm(message string, defaultValue bool) (bool, error) {
	if err := checkInteractiveAllowed(); err != nil {
		return false, err
	}

	confirmed := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &confirmed); err != nil {
		return false, promptError(err)
	}
	return confirmed, nil
}

// PromptSelect asks the user to pick one of the options
func PromptSelect(message string, options []string, defaultValue string) (string, error) {
	if err := checkInteractiveAllowed(); err != nil {
		return "", err
	}

	var selected string
	prompt := &survey.Select{
		Message: message,
		Options: options,
	}
	if defaultValue != "" {
		prompt.Default = defaultValue
	}
	if err := survey.AskOne(prompt, &selected, survey.WithPageSize(15)); err != nil {
		return "", promptError(err)
	}
	return selected, nil
}

// PromptInput asks for a line of text
func PromptInput(message, defaultValue string) (string, error) {
	if err := checkInteractiveAllowed(); err != nil {
		return "", err
	}

	var value string
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &value); err != nil {
		return "", promptError(err)
	}
	return value, nil
}

func promptError(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errors.New("canceled")
	}
	return err
}
