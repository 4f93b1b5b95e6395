package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MrWong99/readscript/internal/apperr"
)

// prompter asks line-based questions. Invalid answers are asked again until
// the input ends.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	if in == nil {
		in = strings.NewReader("")
	}
	return &prompter{in: bufio.NewScanner(in), out: out}
}

// ask prints label with def in brackets and returns the trimmed answer, or
// def for an empty line.
func (p *prompter) ask(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", apperr.Wrap(err, apperr.Fatal, "read answer")
		}
		return "", apperr.Newf(apperr.InvalidInput, "no answer for %q", label)
	}
	answer := strings.TrimSpace(p.in.Text())
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// askFloat asks until the answer parses and check accepts it. An empty
// answer with an empty def yields 0 without calling check.
func (p *prompter) askFloat(label, def string, check func(float64) error) (float64, error) {
	for {
		answer, err := p.ask(label, def)
		if err != nil {
			return 0, err
		}
		if answer == "" {
			return 0, nil
		}
		v, err := strconv.ParseFloat(answer, 64)
		if err != nil {
			fmt.Fprintf(p.out, "  %q is not a number\n", answer)
			continue
		}
		if check != nil {
			if err := check(v); err != nil {
				fmt.Fprintf(p.out, "  %v\n", err)
				continue
			}
		}
		return v, nil
	}
}

// confirm asks a yes/no question.
func (p *prompter) confirm(label string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		answer, err := p.ask(label+" ("+hint+")", "")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, "  please answer y or n")
	}
}
