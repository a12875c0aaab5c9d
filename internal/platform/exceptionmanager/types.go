// Package exceptionmanager is a client for the external exception management
// service that decides what happens to messages the consumers could not process.
package exceptionmanager

import "time"

// ExceptionReport describes a message that exhausted its processing attempts.
// Only the exception class and message are sent; stack traces stay local.
type ExceptionReport struct {
	MessageHash      string `json:"messageHash"`
	Service          string `json:"service"`
	Queue            string `json:"queue"`
	ExceptionClass   string `json:"exceptionClass"`
	ExceptionMessage string `json:"exceptionMessage"`
}

// Advice is the manager's verdict on a reported message.
type Advice struct {
	LogIt  bool `json:"logIt"`
	Peek   bool `json:"peek"`
	SkipIt bool `json:"skipIt"`
}

// SkippedMessage is the quarantine record stored before a message is skipped.
// MessagePayload is encoded as base64 on the wire.
type SkippedMessage struct {
	MessageHash      string            `json:"messageHash"`
	MessagePayload   []byte            `json:"messagePayload"`
	Service          string            `json:"service"`
	Queue            string            `json:"queue"`
	RoutingKey       string            `json:"routingKey"`
	Headers          map[string]string `json:"headers"`
	SkippedTimestamp time.Time         `json:"skippedTimestamp"`
}

// PeekReply returns the raw bytes of a message the manager asked to inspect.
type PeekReply struct {
	MessageHash    string `json:"messageHash"`
	MessagePayload []byte `json:"messagePayload"`
}
