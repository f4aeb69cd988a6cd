// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package console

import (
	"context"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTxnTimeoutMs          = 30000
	defaultTxnMaxExecutionTimeMs = 30000
	defaultTxnScaleGracePeriodMs = 30000
	defaultPingLeaseMs           = 30000
)

func ms(val int64) time.Duration {
	return time.Duration(val) * time.Millisecond
}

func (sess *Session) warnIgnored(params []string) {
	if len(params) > 0 {
		sess.out.Warn("Ignoring parameters: '%s'\n", strings.Join(params, ","))
	}
}

// parseMillis parses params into vals in order. A single bad value
// leaves every entry of vals at its default.
func (sess *Session) parseMillis(params []string, vals []int64) {
	parsed := make([]int64, len(vals))
	for i := range vals {
		if i >= len(params) {
			parsed[i] = vals[i]
			continue
		}
		val, err := strconv.ParseInt(params[i], 10, 64)
		if err != nil {
			sess.out.Warn("Expecting numeric values as parameters.\n")
			return
		}
		parsed[i] = val
	}
	copy(vals, parsed)
}

func (sess *Session) doWriteEvent(ctx context.Context, event string) {
	if sess.txn == nil {
		err := sess.writer.WriteEvent(ctx, event).Wait(ctx)
		if err != nil {
			sess.out.Warn("Write event failed.\n")
			sess.out.Failure(err)
			return
		}
	} else {
		err := sess.txn.WriteEvent(ctx, event)
		if err != nil {
			sess.out.Warn("Write event to transaction failed.\n")
			sess.out.Failure(err)
			return
		}
	}
	sess.out.Info("Wrote '%s'\n", event)
}

func (sess *Session) doWriteEventRK(ctx context.Context, cmd Command) {
	if !cmd.HasRest {
		sess.out.Warn("Expecting '('routingkey')' message\n")
		return
	}
	routingKey, message, ok := ParseRoutingKey(cmd.RestOfLine)
	if !ok {
		sess.out.Warn("Expecting '('routingkey')' message\n")
		return
	}

	if sess.txn == nil {
		err := sess.writer.WriteEventRK(ctx, routingKey, message).Wait(ctx)
		if err != nil {
			sess.out.Warn("Write event failed.\n")
			sess.out.Failure(err)
			return
		}
	} else {
		err := sess.txn.WriteEventRK(ctx, routingKey, message)
		if err != nil {
			sess.out.Warn("Write event to transaction failed.\n")
			sess.out.Failure(err)
			return
		}
	}
	sess.out.Info("Wrote using routing key '%s' message '%s'\n", routingKey, message)
}

func (sess *Session) doBeginTxn(ctx context.Context, params []string) {
	vals := []int64{
		defaultTxnTimeoutMs,
		defaultTxnMaxExecutionTimeMs,
		defaultTxnScaleGracePeriodMs,
	}
	sess.parseMillis(params, vals)

	if sess.txn == nil {
		txn, err := sess.writer.BeginTxn(ctx, ms(vals[0]), ms(vals[1]), ms(vals[2]))
		if err != nil {
			sess.out.Warn("Failed to begin a new transaction.\n")
			sess.out.Failure(err)
		} else {
			sess.txn = txn
		}
	} else {
		sess.out.Warn("Cannot begin a new transaction -- commit or abort the current transaction.\n")
	}

	if len(params) > len(vals) {
		sess.warnIgnored(params[len(vals):])
	}
}

func (sess *Session) doGetTxnId(params []string) {
	if sess.txn == nil {
		sess.out.Warn("Cannot get transaction id -- begin a transaction first.\n")
	} else {
		sess.out.Info("Transaction id: %s\n", sess.txn.Id())
	}
	sess.warnIgnored(params)
}

func (sess *Session) doFlushTxn(ctx context.Context, params []string) {
	if sess.txn == nil {
		sess.out.Warn("Cannot flush transaction -- begin a transaction first.\n")
	} else {
		err := sess.txn.Flush(ctx)
		if err != nil {
			sess.out.Warn("Transaction flush failed to complete.\n")
			sess.out.Failure(err)
		}
		sess.out.Info("Transaction flush completed.\n")
	}
	sess.warnIgnored(params)
}

func (sess *Session) doPingTxn(ctx context.Context, params []string) {
	vals := []int64{defaultPingLeaseMs}
	sess.parseMillis(params, vals)

	if sess.txn == nil {
		sess.out.Warn("Cannot ping transaction -- begin a transaction first.\n")
	} else {
		err := sess.txn.Ping(ctx, ms(vals[0]))
		if err != nil {
			sess.out.Warn("Failed to ping transaction.\n")
			sess.out.Failure(err)
		} else {
			sess.out.Info("Transaction ping completed.\n")
		}
	}

	if len(params) > len(vals) {
		sess.warnIgnored(params[len(vals):])
	}
}

func (sess *Session) doCommitTxn(ctx context.Context, params []string) {
	if sess.txn == nil {
		sess.out.Warn("Cannot commit transaction -- begin a transaction first.\n")
	} else {
		err := sess.txn.Commit(ctx)
		if err != nil {
			sess.out.Warn("Transaction commit failed.\n")
			sess.out.Failure(err)
		} else {
			sess.out.Info("Transaction commit completed.\n")
		}
		// cleared even when the commit failed
		sess.txn = nil
	}
	sess.warnIgnored(params)
}

func (sess *Session) doAbortTxn(ctx context.Context, params []string) {
	if sess.txn == nil {
		sess.out.Warn("Cannot abort transaction -- begin a transaction first.\n")
	} else {
		err := sess.txn.Abort(ctx)
		if err != nil {
			sess.out.Warn("Transaction abort failed.\n")
			sess.out.Failure(err)
		} else {
			sess.out.Info("Transaction abort completed.\n")
			sess.txn = nil
		}
	}
	sess.warnIgnored(params)
}

func (sess *Session) doCheckTxnStatus(ctx context.Context, params []string) {
	if sess.txn == nil {
		sess.out.Warn("Cannot check transaction status -- begin a transaction first.\n")
	} else {
		status, err := sess.txn.CheckStatus(ctx)
		if err != nil {
			sess.out.Warn("Transaction check status failed.\n")
			sess.out.Failure(err)
		} else {
			sess.out.Info("Transaction status: %s\n", status)
		}
	}
	sess.warnIgnored(params)
}

func (sess *Session) doHelp(params []string) {
	sess.out.Lines(gHelpText)
	sess.warnIgnored(params)
}
