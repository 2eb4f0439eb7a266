// Package bus defines the messages workers exchange, the shared broadcast
// stream and the loop guards workers use to ignore their own traffic.
package bus

import (
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Well-known senders.
const (
	SenderUser    = "User"
	SenderGenesis = "Genesis"

	// System pseudo-senders exist only to break feedback loops; workers never
	// react to them.
	SenderSystemRoot      = "SystemRoot"
	SenderAssistantBubble = "AssistantBubble"
)

// Well-known message types.
const (
	TypeText         = "text"
	TypeCoordination = "coordination"
	TypeAlert        = "alert"
	TypeChatResponse = "chat_response"
	TypeFusion       = "fusion"
	TypeInsight      = "insight"
)

// Metadata keys.
const (
	MetaAutoGenerated = "auto_generated"
	MetaSource        = "source"
	MetaOriginalType  = "original_type"
	MetaState         = "meta_state"
	MetaReplyTo       = "reply_to"

	processedSuffix = "_processed"
)

// ProcessedKey is the metadata key a worker sets on messages it emitted or
// already handled.
func ProcessedKey(worker string) string {
	return strings.ToLower(worker) + processedSuffix
}

// Message is an immutable value exchanged between workers. An empty To means
// broadcast. Use the With* methods to derive modified copies.
type Message struct {
	ID        string            `json:"id"`
	From      string            `json:"from"`
	To        string            `json:"to,omitempty"`
	Content   string            `json:"content"`
	Type      string            `json:"type"`
	Priority  int               `json:"priority"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewMessage creates a broadcast message with a fresh id and timestamp.
func NewMessage(from, content, msgType string) Message {
	return Message{
		ID:        uuid.NewString(),
		From:      from,
		Content:   content,
		Type:      msgType,
		Metadata:  map[string]string{},
		Timestamp: time.Now().UTC(),
	}
}

// IsBroadcast reports whether the message has no explicit recipient.
func (m Message) IsBroadcast() bool {
	return m.To == ""
}

// Meta returns the metadata value for key, or "".
func (m Message) Meta(key string) string {
	return m.Metadata[key]
}

// Flag reports whether the metadata value for key is "true".
func (m Message) Flag(key string) bool {
	return m.Metadata[key] == "true"
}

// Clone returns a copy that shares nothing mutable with m.
func (m Message) Clone() Message {
	m.Metadata = maps.Clone(m.Metadata)
	if m.Metadata == nil {
		m.Metadata = map[string]string{}
	}
	return m
}

// WithRecipient returns a retargeted copy addressed to to.
func (m Message) WithRecipient(to string) Message {
	c := m.Clone()
	c.To = to
	return c
}

// WithMeta returns a copy with key set to value.
func (m Message) WithMeta(key, value string) Message {
	c := m.Clone()
	c.Metadata[key] = value
	return c
}

// WithPriority returns a copy with the given priority.
func (m Message) WithPriority(priority int) Message {
	c := m.Clone()
	c.Priority = priority
	return c
}

// MarkEmitted tags the copy as generated by worker so neither it nor its
// peers loop on it.
func (m Message) MarkEmitted(worker string) Message {
	c := m.Clone()
	c.Metadata[MetaAutoGenerated] = "true"
	c.Metadata[ProcessedKey(worker)] = "true"
	return c
}
