package mapview

import (
	"path/filepath"

	"github.com/pkg/browser"
	"github.com/rotisserie/eris"
)

// Opener shows a file to the user.
type Opener interface {
	Open(path string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(path string) error

// Open calls f(path).
func (f OpenerFunc) Open(path string) error { return f(path) }

// BrowserOpener opens files in the system default browser.
type BrowserOpener struct{}

// Open launches the default browser on path.
func (BrowserOpener) Open(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return eris.Wrapf(err, "mapview: resolve %s", path)
	}
	if err := browser.OpenFile(abs); err != nil {
		return eris.Wrapf(err, "mapview: open %s in browser", abs)
	}
	return nil
}

// NopOpener does nothing. Used when browser launching is disabled.
type NopOpener struct{}

// Open returns nil.
func (NopOpener) Open(string) error { return nil }
