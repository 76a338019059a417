package model

import "fmt"

// ConnectionError reports a transport-level failure on one chain's feed.
// The supervisor treats it as retryable.
type ConnectionError struct {
	Chain string
	Err   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: connection failed: %v", e.Chain, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// DecodeError reports a single log record that does not match the
// Transfer event shape. The record is dropped; the feed continues.
type DecodeError struct {
	Chain    string
	TxHash   string
	LogIndex uint
	Reason   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode log %s[%d]: %s", e.Chain, e.TxHash, e.LogIndex, e.Reason)
}

// ConfigurationError reports an invalid chain configuration. The chain
// is disabled at startup and never enters the reconnect loop.
type ConfigurationError struct {
	Chain  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("chain %q: %s", e.Chain, e.Reason)
}
