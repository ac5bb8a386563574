package common

import "fmt"

type ScanError struct {
	Message string
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("Scan Error: %s", e.Message)
}

type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("Configuration Error: %s", e.Message)
}

type SourceError struct {
	Source  string
	Message string
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("Source Error (%s): %s", e.Source, e.Message)
}

func NewScanError(message string) error {
	return &ScanError{Message: message}
}

func NewConfigError(message string) error {
	return &ConfigError{Message: message}
}

func NewSourceError(source, message string) error {
	return &SourceError{Source: source, Message: message}
}
