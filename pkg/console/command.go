// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package console

import (
	"strings"
	"unicode"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindWriteEvent
	KindWriteEventRK
	KindBegin
	KindGetTxnId
	KindFlush
	KindPing
	KindCommit
	KindAbort
	KindStatus
	KindHelp
	KindQuit
)

var gKindNames = map[string]Kind{
	"WRITE_EVENT":    KindWriteEvent,
	"WRITE_EVENT_RK": KindWriteEventRK,
	"BEGIN":          KindBegin,
	"GET_TXN_ID":     KindGetTxnId,
	"FLUSH":          KindFlush,
	"PING":           KindPing,
	"COMMIT":         KindCommit,
	"ABORT":          KindAbort,
	"STATUS":         KindStatus,
	"HELP":           KindHelp,
	"QUIT":           KindQuit,
}

// Command is one parsed input line: [NAME] [param [,param]...]
type Command struct {
	Name string
	Kind Kind

	// RestOfLine is everything after Name, verbatim, and only
	// meaningful when HasRest is set.
	RestOfLine string
	HasRest    bool

	Params []string
}

// ParseCommand splits a non-empty, trimmed line into its command name
// and parameters. Names match case-insensitively, an unknown name
// yields KindUnknown.
func ParseCommand(line string) Command {
	cmd := Command{}

	nameEnd := strings.IndexFunc(line, unicode.IsSpace)
	if nameEnd == -1 {
		cmd.Name = line
	} else {
		cmd.Name = line[:nameEnd]
		cmd.RestOfLine = line[nameEnd:]
		cmd.HasRest = true
		cmd.Params = splitParams(cmd.RestOfLine)
	}
	cmd.Kind = gKindNames[strings.ToUpper(cmd.Name)]

	return cmd
}

// splitParams splits on commas, drops trailing empty fields and trims
// what remains.
func splitParams(rest string) []string {
	raw := strings.Split(rest, ",")
	for len(raw) > 0 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}

	params := make([]string, len(raw))
	for i, p := range raw {
		params[i] = strings.TrimSpace(p)
	}
	return params
}

// Payload is the event text carried by a WRITE_EVENT line: the rest of
// the line without the separator after the command name.
func (cmd Command) Payload() string {
	return strings.TrimLeftFunc(cmd.RestOfLine, unicode.IsSpace)
}
