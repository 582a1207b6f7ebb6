// Package api provides the user-facing front ends: the interactive session,
// its Telegram transport and the scheduled watcher
package api

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/abelzeko/riverflow/internal/entities"
	apperrors "github.com/abelzeko/riverflow/pkg/errors"
)

// FlowService is what the front ends need from the use case layer
type FlowService interface {
	Search(stations []entities.Station, query string) []entities.Match
	LatestReading(ctx context.Context, match entities.Match) (entities.LatestReading, error)
}

// LineReader yields one line of user input per call. io.EOF ends the input.
// ReadLine returns ctx.Err() if ctx is done before a line arrives.
type LineReader interface {
	ReadLine(ctx context.Context) (string, error)
}

type scannedLine struct {
	text string
	err  error
}

// ScannerReader reads lines from an io.Reader such as stdin.
// The reader is consumed by a background goroutine so that a blocked read
// can be abandoned when the context is cancelled.
type ScannerReader struct {
	scanner *bufio.Scanner
	lines   chan scannedLine
	once    sync.Once
}

// NewLineReader wraps r in a ScannerReader
func NewLineReader(r io.Reader) *ScannerReader {
	return &ScannerReader{scanner: bufio.NewScanner(r)}
}

func (s *ScannerReader) scan() {
	defer close(s.lines)
	for s.scanner.Scan() {
		s.lines <- scannedLine{text: strings.TrimRight(s.scanner.Text(), "\r")}
	}
	if err := s.scanner.Err(); err != nil {
		s.lines <- scannedLine{err: err}
	}
}

// ReadLine blocks until a full line is available or ctx is done
func (s *ScannerReader) ReadLine(ctx context.Context) (string, error) {
	s.once.Do(func() {
		s.lines = make(chan scannedLine)
		go s.scan()
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-s.lines:
		if !ok {
			return "", io.EOF
		}
		return line.text, line.err
	}
}

// State is a step of the interaction loop
type State int

const (
	StateSearching State = iota
	StateSelecting
	StateDisplaying
	StateContinuePrompt
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateSelecting:
		return "selecting"
	case StateDisplaying:
		return "displaying"
	case StateContinuePrompt:
		return "continue_prompt"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Messages written by the session.
const (
	PromptSearch     = "Enter a station name to search: "
	PromptSelect     = "Select a station number: "
	PromptSearchMore = "Search again? (y/n): "
	PromptLookupMore = "Look up another station? (y/n): "
	MessageNoData    = "No data available for this station."
	MessageFarewell  = "Goodbye!"
)

// Session runs the search, select, display loop over a fixed station list
type Session struct {
	service  FlowService
	stations []entities.Station
	in       LineReader
	out      io.Writer
	logger   *slog.Logger

	state    State
	matches  []entities.Match
	selected entities.Match
}

// NewSession creates a session starting in StateSearching
func NewSession(service FlowService, stations []entities.Station, in LineReader, out io.Writer, logger *slog.Logger) *Session {
	return &Session{
		service:  service,
		stations: stations,
		in:       in,
		out:      out,
		logger:   logger,
		state:    StateSearching,
	}
}

// State returns the current state
func (s *Session) State() State {
	return s.state
}

// Run drives the session until the user quits or a fatal error occurs.
// Network, decode and API status errors are returned unchanged.
// Cancelling ctx ends the session like a quit.
func (s *Session) Run(ctx context.Context) error {
	for s.state != StateTerminated {
		if ctx.Err() != nil {
			s.logger.Info("session interrupted", "state", s.state)
			s.state = StateTerminated
			break
		}
		next, err := s.Step(ctx)
		if err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled) {
			s.logger.Info("session interrupted", "state", s.state, "err", err)
			fmt.Fprintln(s.out)
			s.state = StateTerminated
			break
		}
		if err != nil {
			return err
		}
		s.logger.Debug("state transition", "from", s.state, "to", next)
		s.state = next
	}
	fmt.Fprintln(s.out, MessageFarewell)
	return nil
}

// Step performs the work of the current state and returns the next one.
// It does not change the session's state itself.
func (s *Session) Step(ctx context.Context) (State, error) {
	switch s.state {
	case StateSearching:
		return s.search(ctx)
	case StateSelecting:
		return s.selectMatch(ctx)
	case StateDisplaying:
		return s.display(ctx)
	case StateContinuePrompt:
		return s.askContinue(ctx)
	default:
		return StateTerminated, nil
	}
}

// readLine prompts and reads one line. End of input or cancellation means quit.
func (s *Session) readLine(ctx context.Context, prompt string) (string, bool, error) {
	fmt.Fprint(s.out, prompt)
	line, err := s.in.ReadLine(ctx)
	if errors.Is(err, io.EOF) || (err != nil && ctx.Err() != nil) {
		fmt.Fprintln(s.out)
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read input: %w", err)
	}
	return line, true, nil
}

func (s *Session) search(ctx context.Context) (State, error) {
	query, ok, err := s.readLine(ctx, PromptSearch)
	if err != nil || !ok {
		return StateTerminated, err
	}
	s.matches = s.service.Search(s.stations, query)
	if len(s.matches) == 0 {
		fmt.Fprintf(s.out, "No station found matching %q.\n", strings.TrimSpace(query))
		return StateContinuePrompt, nil
	}
	fmt.Fprint(s.out, FormatMatches(s.matches))
	return StateSelecting, nil
}

func (s *Session) selectMatch(ctx context.Context) (State, error) {
	line, ok, err := s.readLine(ctx, PromptSelect)
	if err != nil || !ok {
		return StateTerminated, err
	}
	choice, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		fmt.Fprintf(s.out, "%q is not a valid number.\n", strings.TrimSpace(line))
		return StateSelecting, nil
	}
	if choice < 1 || choice > len(s.matches) {
		fmt.Fprintf(s.out, "Please enter a number between 1 and %d.\n", len(s.matches))
		return StateSelecting, nil
	}
	s.selected = s.matches[choice-1]
	return StateDisplaying, nil
}

func (s *Session) display(ctx context.Context) (State, error) {
	latest, err := s.service.LatestReading(ctx, s.selected)
	if apperrors.IsCode(err, apperrors.CodeNoData) {
		fmt.Fprintln(s.out, MessageNoData)
		return StateContinuePrompt, nil
	}
	if err != nil {
		return StateTerminated, err
	}
	fmt.Fprint(s.out, FormatReading(latest.StationName, latest.Reading, latest.Unit))
	return StateContinuePrompt, nil
}

func (s *Session) askContinue(ctx context.Context) (State, error) {
	prompt := PromptLookupMore
	if len(s.matches) == 0 {
		prompt = PromptSearchMore
	}
	answer, ok, err := s.readLine(ctx, prompt)
	if err != nil || !ok {
		return StateTerminated, err
	}
	if strings.EqualFold(strings.TrimSpace(answer), "n") {
		return StateTerminated, nil
	}
	return StateSearching, nil
}
