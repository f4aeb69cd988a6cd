// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package stream

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrTxnNotOpen   = errors.New("transaction is not open")
	ErrLeaseExpired = errors.New("transaction lease expired")
	ErrLeaseTooLong = errors.New("lease extends past max execution time")
)

// TxnFailedError reports an operation that failed against a
// transaction. The transaction may no longer be usable afterwards,
// CheckStatus tells.
type TxnFailedError struct {
	TxnId uuid.UUID
	Op    string
	Err   error
}

func (e *TxnFailedError) Error() string {
	return fmt.Sprintf("Transaction %s %s failed: %s", e.TxnId, e.Op, e.Err)
}

func (e *TxnFailedError) Unwrap() error {
	return e.Err
}
