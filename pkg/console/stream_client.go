// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package console

import (
	"context"
	"time"

	"github.com/lachlanorr/consolerw/pkg/stream"
)

type streamClient struct {
	*stream.EventWriter
}

// NewStreamClient adapts a stream.EventWriter to the console's
// EventWriter.
func NewStreamClient(w *stream.EventWriter) EventWriter {
	return streamClient{w}
}

func (sc streamClient) BeginTxn(
	ctx context.Context,
	timeout time.Duration,
	maxExecutionTime time.Duration,
	gracePeriod time.Duration,
) (Txn, error) {
	txn, err := sc.EventWriter.BeginTxn(ctx, timeout, maxExecutionTime, gracePeriod)
	if err != nil {
		return nil, err
	}
	return txn, nil
}
