/*
	Interactive line-oriented prompts.

	On a terminal every prompt is a promptui prompt: bad answers are
	refused inline by the prompt's validator, so the user simply keeps typing.
	When stdin is not a terminal (answers piped in from a file, or tests),
	promptui's line editor can't be shared across prompts, so a plain
	line reader over stdin is used instead; it prints the same error lines
	and asks again on bad input.

	Either way, the only error a prompt returns for input reasons is running
	out of input entirely (category `api.ErrUsage`), so piping a short answer
	file in never spins.  Ctrl-C at a prompt is `api.ErrCancelled`.
*/
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	. "github.com/warpfork/go-errcat"
	"golang.org/x/term"

	"github.com/polydawn/rbxarchive/api"
)

type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	// Set only when stdin is a terminal.  Prompts then go through promptui,
	// and secrets are read without echo.
	tty    io.ReadCloser
	termFd int
}

func New(stdin io.Reader, stdout io.Writer) *Prompter {
	p := &Prompter{
		in:     bufio.NewReader(stdin),
		out:    stdout,
		termFd: -1,
	}
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.tty = f
		p.termFd = int(f.Fd())
	}
	return p
}

func (p *Prompter) interactive() bool {
	return p.tty != nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

/*
	Build the promptui prompt for a question.  Our question strings carry
	their own trailing ": " or "(Y/N) "; promptui draws its own, so that's cut.
*/
func (p *Prompter) newPrompt(question string) promptui.Prompt {
	return promptui.Prompt{
		Label:  label(question),
		Stdin:  p.tty,
		Stdout: nopWriteCloser{p.out},
	}
}

func label(question string) string {
	question = strings.TrimSpace(question)
	question = strings.TrimSuffix(question, "(Y/N)")
	return strings.TrimRight(question, ": ")
}

/*
	Runs a promptui prompt, giving its errors our categories.
*/
func run(prm promptui.Prompt) (string, error) {
	answer, err := prm.Run()
	if err != nil {
		return "", promptErr(prm.Label, err)
	}
	return strings.TrimSpace(answer), nil
}

func promptErr(lbl interface{}, err error) error {
	switch err {
	case promptui.ErrEOF:
		return Errorf(api.ErrUsage, "input ended while waiting for an answer to %q", lbl)
	case promptui.ErrInterrupt:
		return Errorf(api.ErrCancelled, "interrupted while waiting for an answer to %q", lbl)
	default:
		return Errorf(api.ErrUsage, "failed reading input: %s", err)
	}
}

/*
	Print the prompt and read one line, trimmed of surrounding whitespace.
	A final line lacking a newline is still returned; only a read that
	yields nothing at all at EOF is an error.
*/
func (p *Prompter) Line(prompt string) (string, error) {
	if p.interactive() {
		return run(p.newPrompt(prompt))
	}
	return p.readLine(prompt)
}

func (p *Prompter) readLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	if err == io.EOF {
		fmt.Fprintln(p.out)
		return "", Errorf(api.ErrUsage, "input ended while waiting for an answer to %q", strings.TrimSpace(prompt))
	}
	if err != nil {
		return "", Errorf(api.ErrUsage, "failed reading input: %s", err)
	}
	return strings.TrimSpace(line), nil
}

/*
	Like Line, but the answer is not echoed when stdin is a terminal.
*/
func (p *Prompter) Secret(prompt string) (string, error) {
	if !p.interactive() {
		return p.readLine(prompt)
	}
	fmt.Fprint(p.out, prompt)
	bs, err := term.ReadPassword(p.termFd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", Errorf(api.ErrUsage, "failed reading input: %s", err)
	}
	return strings.TrimSpace(string(bs)), nil
}

/*
	Validator for positive integer answers.
	With a default, an empty answer is also fine.
*/
func validatePositiveInt(errorIfInvalid string, hasDefault bool) promptui.ValidateFunc {
	return func(raw string) error {
		raw = strings.TrimSpace(raw)
		if raw == "" && hasDefault {
			return nil
		}
		if _, err := ParsePositiveInt(raw); err != nil {
			return errors.New(errorIfInvalid)
		}
		return nil
	}
}

func (p *Prompter) positiveIntPrompt(prompt string, errorIfInvalid string, def *int64) promptui.Prompt {
	prm := p.newPrompt(prompt)
	prm.Validate = validatePositiveInt(errorIfInvalid, def != nil)
	return prm
}

/*
	Ask for a positive integer, repeating the question (after printing
	errorIfInvalid) until one is given.
	If def is non-nil, an empty answer picks it.
*/
func (p *Prompter) PositiveInt(prompt string, errorIfInvalid string, def *int64) (int64, error) {
	validate := validatePositiveInt(errorIfInvalid, def != nil)
	for {
		var raw string
		var err error
		if p.interactive() {
			raw, err = run(p.positiveIntPrompt(prompt, errorIfInvalid, def))
		} else {
			raw, err = p.readLine(prompt)
		}
		if err != nil {
			return 0, err
		}
		if err := validate(raw); err != nil {
			fmt.Fprintln(p.out, err)
			continue
		}
		if raw == "" {
			return *def, nil
		}
		return ParsePositiveInt(raw)
	}
}

/*
	Parses a strictly positive base-10 integer.
*/
func ParsePositiveInt(raw string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, Errorf(api.ErrUsage, "%q is not an integer", raw)
	}
	if v <= 0 {
		return 0, Errorf(api.ErrUsage, "%d is not positive", v)
	}
	return v, nil
}

const yesNoError = "Please answer yes or no."

func parseYesNo(raw string) (yes bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "y", "yes":
		return true, true
	case "n", "no":
		return false, true
	}
	return false, false
}

func validateYesNo(raw string) error {
	if _, ok := parseYesNo(raw); !ok {
		return errors.New(yesNoError)
	}
	return nil
}

func (p *Prompter) yesNoPrompt(prompt string) promptui.Prompt {
	prm := p.newPrompt(prompt)
	prm.Validate = validateYesNo
	return prm
}

/*
	Ask a yes/no question until one of "y", "yes", "n", or "no"
	(in any case) is given.
*/
func (p *Prompter) YesNo(prompt string) (bool, error) {
	for {
		var raw string
		var err error
		if p.interactive() {
			raw, err = run(p.yesNoPrompt(prompt))
		} else {
			raw, err = p.readLine(prompt)
		}
		if err != nil {
			return false, err
		}
		if yes, ok := parseYesNo(raw); ok {
			return yes, nil
		}
		fmt.Fprintln(p.out, yesNoError)
	}
}

func (p *Prompter) confirmPrompt(prompt string) promptui.Prompt {
	prm := p.newPrompt(prompt)
	prm.IsConfirm = true
	return prm
}

/*
	Ask a question once; only "y" or "yes" (in any case) counts as agreement.
	Everything else, including running out of input, is a no.
*/
func (p *Prompter) Confirm(prompt string) bool {
	var raw string
	if p.interactive() {
		// promptui refuses anything but y with ErrAbort.
		prm := p.confirmPrompt(prompt)
		answer, err := prm.Run()
		if err != nil {
			return false
		}
		raw = answer
	} else {
		answer, err := p.readLine(prompt)
		if err != nil {
			return false
		}
		raw = answer
	}
	yes, ok := parseYesNo(raw)
	return ok && yes
}
