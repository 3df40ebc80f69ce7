package rrepr

import (
	"github.com/atotto/clipboard"
)

// Clipboard receives every successful render
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the desktop clipboard. It needs xclip, xsel or
// wl-copy on Linux.
type SystemClipboard struct{}

// WriteAll implements the Clipboard interface
func (SystemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// NopClipboard discards text
type NopClipboard struct{}

// WriteAll implements the Clipboard interface
func (NopClipboard) WriteAll(string) error { return nil }
