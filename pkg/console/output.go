// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package console

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
)

const (
	infoMarker = "**** "
	warnMarker = "!!!! "
)

// Output writes operator facing results. Info lines and warnings share
// the writer and differ only by their marker.
type Output struct {
	w io.Writer
}

func NewOutput(w io.Writer) *Output {
	return &Output{w: w}
}

func (out *Output) Info(format string, args ...interface{}) {
	fmt.Fprint(out.w, infoMarker)
	fmt.Fprintf(out.w, format, args...)
}

func (out *Output) Warn(format string, args ...interface{}) {
	fmt.Fprint(out.w, warnMarker)
	fmt.Fprintf(out.w, format, args...)
}

// Failure logs err with its full chain and ends the operator's view of
// the failure with an empty info line.
func (out *Output) Failure(err error) {
	log.Error().
		Err(err).
		Msg("Stream client call failed")
	out.Info("\n")
}

func (out *Output) Lines(lines []string) {
	for _, line := range lines {
		fmt.Fprintln(out.w, line)
	}
	fmt.Fprintln(out.w)
}
