package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// stageStatus reports progress for one facekit pipeline stage (detect
// or align) as a spinner on stderr, settling into a colored
// finished/failed line once the stage completes.
type stageStatus struct {
	mu         sync.Mutex
	writer     io.Writer
	stage      string
	lastOutput string
	stopChan   chan struct{}
}

// startStage begins reporting progress for stage (e.g. "Detecting
// faces", "Aligning face") and returns the handle used to settle it.
func startStage(stage string) *stageStatus {
	s := &stageStatus{
		writer:   os.Stderr,
		stage:    stage,
		stopChan: make(chan struct{}, 1),
	}
	go s.spin()
	return s
}

func (s *stageStatus) spin() {
	for {
		for _, r := range `⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏` {
			select {
			case <-s.stopChan:
				return
			default:
				s.mu.Lock()
				output := fmt.Sprintf("\r%s... %s %c%s", s.stage, successColor, r, defaultColor)
				fmt.Fprint(s.writer, output)
				s.lastOutput = output
				s.mu.Unlock()
				time.Sleep(100 * time.Millisecond)
			}
		}
	}
}

// succeed stops the spinner and settles the line as finished.
func (s *stageStatus) succeed() {
	s.settle(fmt.Sprintf("%s... %sfinished%s\n", s.stage, successColor, defaultColor))
}

// fail stops the spinner, settles the line as failed and returns err
// unchanged so callers can write `return status.fail(err)`.
func (s *stageStatus) fail(err error) error {
	s.settle(fmt.Sprintf("%s... %sfailed%s\n", s.stage, errorColor, defaultColor))
	return err
}

func (s *stageStatus) settle(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clear()
	fmt.Fprint(s.writer, msg)
	s.stopChan <- struct{}{}
}

// clear erases the spinner's last line. Caller must hold s.mu.
func (s *stageStatus) clear() {
	n := utf8.RuneCountInString(s.lastOutput)
	if n == 0 {
		return
	}
	fmt.Fprint(s.writer, "\r"+strings.Repeat(" ", n)+"\r")
	s.lastOutput = ""
}
