// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package a2a

import (
	"fmt"
	"strings"

	"github.com/go-json-experiment/json"
)

// PartKind identifies the variant of a [Part].
type PartKind string

const (
	// PartKindText is the kind of a [TextPart].
	PartKindText PartKind = "text"
)

// Part is an atomic content unit within a [Message] or [Artifact].
//
// Part is a closed sum type: the only implementations live in this package.
type Part interface {
	// Kind reports the variant of the part.
	Kind() PartKind

	isPart()
}

// TextPart is a [Part] carrying plain text.
type TextPart struct {
	Text     string
	Metadata map[string]any
}

var _ Part = TextPart{}

// NewTextPart returns a [TextPart] holding text.
func NewTextPart(text string) TextPart {
	return TextPart{Text: text}
}

// Kind implements [Part].
func (TextPart) Kind() PartKind { return PartKindText }

func (TextPart) isPart() {}

// Parts is an ordered sequence of [Part] values.
//
// On the wire a text part is encoded as {"text": "..."} without a type
// discriminator; the variant is inferred from the fields present.
type Parts []Part

// wirePart is the union of every field a part may carry on the wire.
type wirePart struct {
	Kind     string         `json:"kind,omitempty"`
	Type     string         `json:"type,omitempty"`
	Text     *string        `json:"text,omitzero"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// MarshalJSON implements [json.Marshaler].
func (ps Parts) MarshalJSON() ([]byte, error) {
	wire := make([]wirePart, 0, len(ps))
	for i, p := range ps {
		switch p := p.(type) {
		case TextPart:
			text := p.Text
			wire = append(wire, wirePart{Text: &text, Metadata: p.Metadata})
		case *TextPart:
			text := p.Text
			wire = append(wire, wirePart{Text: &text, Metadata: p.Metadata})
		default:
			return nil, fmt.Errorf("part %d: %w", i, &UnsupportedPartError{Kind: fmt.Sprintf("%T", p)})
		}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON implements [json.Unmarshaler].
func (ps *Parts) UnmarshalJSON(data []byte) error {
	var wire []wirePart
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	parts := make(Parts, 0, len(wire))
	for i, w := range wire {
		p, err := w.part()
		if err != nil {
			return fmt.Errorf("part %d: %w", i, err)
		}
		parts = append(parts, p)
	}
	*ps = parts

	return nil
}

func (w wirePart) part() (Part, error) {
	kind := w.Type
	if kind == "" {
		kind = w.Kind
	}

	switch strings.ToLower(kind) {
	case "", string(PartKindText):
		if w.Text == nil {
			return nil, &UnsupportedPartError{Kind: kind}
		}
		return TextPart{Text: *w.Text, Metadata: w.Metadata}, nil
	default:
		return nil, &UnsupportedPartError{Kind: kind}
	}
}

// JoinText concatenates the text of every [TextPart] in parts, separated by sep.
// Non-text parts are skipped.
func JoinText(parts []Part, sep string) string {
	var b strings.Builder
	first := true
	for _, p := range parts {
		var text string
		switch p := p.(type) {
		case TextPart:
			text = p.Text
		case *TextPart:
			text = p.Text
		default:
			continue
		}
		if !first {
			b.WriteString(sep)
		}
		b.WriteString(text)
		first = false
	}
	return b.String()
}

// CloneParts returns a copy of parts that shares no slice memory with the input.
func CloneParts(parts []Part) Parts {
	if parts == nil {
		return nil
	}
	out := make(Parts, len(parts))
	copy(out, parts)
	return out
}
