// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package stream

type TxnStatus int

const (
	TxnStatusUnknown TxnStatus = iota
	TxnStatusOpen
	TxnStatusCommitting
	TxnStatusCommitted
	TxnStatusAborting
	TxnStatusAborted
)

func (status TxnStatus) String() string {
	switch status {
	case TxnStatusOpen:
		return "OPEN"
	case TxnStatusCommitting:
		return "COMMITTING"
	case TxnStatusCommitted:
		return "COMMITTED"
	case TxnStatusAborting:
		return "ABORTING"
	case TxnStatusAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}
