/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package report

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"
)

// Spin runs fn with a spinner on stderr while it executes. When stderr is
// not a terminal (CI, piped output) the spinner is skipped and only the
// message is logged by the caller.
func Spin(message string, fn func()) {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		fn()
		return
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
		spinner.WithWriter(os.Stderr),
		spinner.WithSuffix(" "+message),
	)
	s.Start()
	defer s.Stop()
	fn()
}
