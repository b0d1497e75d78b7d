package lifecycle

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// Outcome is the result of Cleanup.
type Outcome int

const (
	// OutcomeSkipped means the artifact did not exist and no prompt was shown.
	OutcomeSkipped Outcome = iota
	// OutcomeKept means the artifact was left on disk.
	OutcomeKept
	// OutcomeDeleted means the artifact was removed.
	OutcomeDeleted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeKept:
		return "kept"
	case OutcomeDeleted:
		return "deleted"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Prompt text.
const (
	SavePrompt    = "\nDo you want to save the map file? (y/n): "
	InvalidAnswer = "Please enter 'y' or 'n'"
)

// FileCleanupError reports a failure while checking, prompting for or
// deleting the artifact. It never changes the exit status.
type FileCleanupError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileCleanupError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *FileCleanupError) Unwrap() error {
	return e.Err
}

// Cleanup asks whether to keep the artifact at path, reading answers from in
// and writing prompts to out. Answers are trimmed and case-insensitive; the
// prompt repeats until y or n. Input ending before a valid answer keeps the
// file.
func Cleanup(path string, in io.Reader, out io.Writer) (Outcome, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return OutcomeSkipped, nil
		}
		return OutcomeSkipped, &FileCleanupError{Path: path, Op: "stat", Err: err}
	}

	answer, err := ask(in, out)
	if err != nil {
		return OutcomeKept, &FileCleanupError{Path: path, Op: "prompt", Err: err}
	}

	if answer == "n" {
		if err := os.Remove(path); err != nil {
			return OutcomeKept, &FileCleanupError{Path: path, Op: "remove", Err: err}
		}
		fmt.Fprintf(out, "Cleaned up: %s\n", path)
		return OutcomeDeleted, nil
	}

	fmt.Fprintf(out, "Map file saved as: %s\n", path)
	return OutcomeKept, nil
}

// ask loops until it reads y or n. EOF counts as y.
func ask(in io.Reader, out io.Writer) (string, error) {
	r := bufio.NewReader(in)
	for {
		fmt.Fprint(out, SavePrompt)

		line, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y":
			return "y", nil
		case "n":
			return "n", nil
		}

		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return "y", nil
		}
		fmt.Fprintln(out, InvalidAnswer)
	}
}
