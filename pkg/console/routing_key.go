// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package console

import (
	"strings"
)

// ParseRoutingKey reads '(' routingKey ')' message. The opening paren
// and the one closing the key are the only parens allowed. Key and
// message are trimmed and the message may not be empty.
func ParseRoutingKey(rest string) (string, string, bool) {
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "(") {
		return "", "", false
	}

	closeIdx := strings.IndexAny(rest[1:], "()")
	if closeIdx <= 0 {
		// no paren at all, or an empty key
		return "", "", false
	}
	closeIdx++
	if rest[closeIdx] != ')' {
		return "", "", false
	}

	routingKey := strings.TrimSpace(rest[1:closeIdx])
	message := strings.TrimSpace(rest[closeIdx+1:])
	if message == "" || strings.ContainsAny(message, "()") {
		return "", "", false
	}
	return routingKey, message, true
}
