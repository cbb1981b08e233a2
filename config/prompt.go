package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var ErrNoInput = errors.New("no more input")

// Prompter asks for values on a line-oriented input stream until a valid
// one is supplied.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Int prints label and reads lines until check accepts the parsed value.
func (p *Prompter) Int(label string, check func(int) error) (int, error) {
	for {
		fmt.Fprintf(p.out, "%s: ", label)
		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return 0, err
			}
			return 0, ErrNoInput
		}
		n, err := strconv.Atoi(strings.TrimSpace(p.in.Text()))
		if err != nil {
			fmt.Fprintln(p.out, "Error: please enter a whole number.")
			continue
		}
		if err := check(n); err != nil {
			fmt.Fprintf(p.out, "Error: %v.\n", err)
			continue
		}
		return n, nil
	}
}

func atLeastOne(name string) func(int) error {
	return func(n int) error {
		if n <= 0 {
			return fmt.Errorf("%s must be greater than 0", name)
		}
		return nil
	}
}

// Resolve prompts for every value Missing reports and clamps max-time.
func Resolve(cfg *Config, p *Prompter) error {
	var err error
	if cfg.MaxInstances <= 0 {
		if cfg.MaxInstances, err = p.Int("Enter maximum number of concurrent instances (n, must be > 0)", atLeastOne("n")); err != nil {
			return fmt.Errorf("%s: %w", KeyMaxInstances, err)
		}
	}
	if cfg.Tanks <= 0 {
		if cfg.Tanks, err = p.Int("Enter number of tank players in the queue (t, must be > 0)", atLeastOne("t")); err != nil {
			return fmt.Errorf("%s: %w", KeyTanks, err)
		}
	}
	if cfg.Healers <= 0 {
		if cfg.Healers, err = p.Int("Enter number of healer players in the queue (h, must be > 0)", atLeastOne("h")); err != nil {
			return fmt.Errorf("%s: %w", KeyHealers, err)
		}
	}
	if cfg.DPS <= 0 {
		if cfg.DPS, err = p.Int("Enter number of DPS players in the queue (d, must be > 0)", atLeastOne("d")); err != nil {
			return fmt.Errorf("%s: %w", KeyDPS, err)
		}
	}
	if cfg.MinTime <= 0 {
		cfg.MinTime, err = p.Int("Enter minimum time before an instance is finished (t1, must be > 0)", func(n int) error {
			if n <= 0 {
				return errors.New("t1 must be greater than 0")
			}
			if n >= ClearTimeCeiling {
				return fmt.Errorf("t1 must be less than %d", ClearTimeCeiling)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("%s: %w", KeyMinTime, err)
		}
	}
	if cfg.MaxTime <= cfg.MinTime {
		cfg.MaxTime, err = p.Int("Enter maximum time before an instance is finished (t2, must be > t1)", func(n int) error {
			if n <= cfg.MinTime {
				return fmt.Errorf("t2 must be greater than t1 (%d)", cfg.MinTime)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("%s: %w", KeyMaxTime, err)
		}
	}
	if cfg.ClampMaxTime() {
		fmt.Fprintf(p.out, "Warning: t2 exceeds maximum allowed value (%d). Setting t2 to %d.\n", ClearTimeCeiling, ClearTimeCeiling)
	}
	return cfg.Validate()
}
