// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lachlanorr/consolerw/pkg/stream"
)

// EventWriter is the slice of the stream client the console drives.
type EventWriter interface {
	WriteEvent(ctx context.Context, payload string) *stream.Ack
	WriteEventRK(ctx context.Context, routingKey string, payload string) *stream.Ack
	BeginTxn(ctx context.Context, timeout time.Duration, maxExecutionTime time.Duration, gracePeriod time.Duration) (Txn, error)
}

type Txn interface {
	Id() uuid.UUID
	WriteEvent(ctx context.Context, payload string) error
	WriteEventRK(ctx context.Context, routingKey string, payload string) error
	Flush(ctx context.Context) error
	Ping(ctx context.Context, lease time.Duration) error
	Commit(ctx context.Context) error
	Abort(ctx context.Context) error
	CheckStatus(ctx context.Context) (stream.TxnStatus, error)
}

type LineReader interface {
	GetLine(prompt string) (string, error)
}

// Session is one operator's console against a single stream. It holds
// at most one open transaction; while it does, writes go to the
// transaction instead of the stream.
type Session struct {
	scope  string
	name   string
	writer EventWriter
	txn    Txn
	out    *Output
}

func NewSession(scope string, name string, writer EventWriter, out *Output) *Session {
	return &Session{
		scope:  scope,
		name:   name,
		writer: writer,
		out:    out,
	}
}

// Txn returns the open transaction, nil when there is none.
func (sess *Session) Txn() Txn {
	return sess.txn
}

func (sess *Session) Prompt() string {
	if sess.txn != nil {
		return sess.txn.Id().String()
	}
	return sess.scope + "/" + sess.name
}

// Run prints the help text and then reads and dispatches lines until
// QUIT or end of input. Only reader failures are returned.
func (sess *Session) Run(ctx context.Context, rdr LineReader) error {
	sess.out.Lines(gHelpText)

	for {
		line, err := rdr.GetLine(fmt.Sprintf("%s >", sess.Prompt()))
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Debug().Msg("End of input")
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if sess.Dispatch(ctx, line) {
			return nil
		}
	}
}

// Dispatch executes a single non-empty line and reports whether the
// session is done.
func (sess *Session) Dispatch(ctx context.Context, line string) bool {
	cmd := ParseCommand(line)

	switch cmd.Kind {
	case KindWriteEvent:
		sess.doWriteEvent(ctx, cmd.Payload())
	case KindWriteEventRK:
		sess.doWriteEventRK(ctx, cmd)
	case KindBegin:
		sess.doBeginTxn(ctx, cmd.Params)
	case KindGetTxnId:
		sess.doGetTxnId(cmd.Params)
	case KindFlush:
		sess.doFlushTxn(ctx, cmd.Params)
	case KindPing:
		sess.doPingTxn(ctx, cmd.Params)
	case KindCommit:
		sess.doCommitTxn(ctx, cmd.Params)
	case KindAbort:
		sess.doAbortTxn(ctx, cmd.Params)
	case KindStatus:
		sess.doCheckTxnStatus(ctx, cmd.Params)
	case KindHelp:
		sess.doHelp(cmd.Params)
	case KindQuit:
		// an open transaction is deliberately left alone
		sess.out.Info("Exiting...\n")
		return true
	default:
		sess.doWriteEvent(ctx, line)
	}
	return false
}
