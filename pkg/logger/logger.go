package logger

import "log"

// Interface is the interface all loggers have to implement
type Interface interface {
	Error(message string, err error)
	Info(message string)
	Debug(message string)
	Fatal(err error)
}

// Logger writes to the standard logger, Debug lines only when Verbose is set
type Logger struct {
	Verbose bool
}

// Error is for throwing a log message with status Error
func (l Logger) Error(message string, err error) {
	log.Printf("[ERROR] %s: %v\n", message, err)
}

// Info is for throwing a log message with status Info
func (l Logger) Info(message string) {
	log.Printf("[INFO] %s\n", message)
}

// Debug is for throwing a log message with status Debug
func (l Logger) Debug(message string) {
	if !l.Verbose {
		return
	}

	log.Printf("[DEBUG] %s\n", message)
}

// Fatal is for throwing a log message with status Fatal
func (l Logger) Fatal(err error) {
	log.Fatalf("[FATAL] %v\n", err)
}

// Discard drops every message, Fatal still panics
type Discard struct{}

// Error drops the message
func (Discard) Error(string, error) {}

// Info drops the message
func (Discard) Info(string) {}

// Debug drops the message
func (Discard) Debug(string) {}

// Fatal panics with err
func (Discard) Fatal(err error) {
	panic(err)
}
