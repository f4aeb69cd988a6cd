// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package console

var gHelpText = []string{
	"Enter one of the following commands at the command line prompt:",
	"",
	"If no command is entered, the line is treated as a parameter to the WRITE_EVENT command.",
	"",
	"WRITE_EVENT {event} - write the {event} out to the Stream or the current Transaction.",
	"WRITE_EVENT_RK ({routingKey}) {event} - write the {event} out to the Stream or the current Transaction using {routingKey}. Note ( and ) around {routingKey}.",
	"BEGIN [{transactionTimeout}] [, {maxExecutionTime}] [, {scaleGracePeriod}] - begin a Transaction, times in milliseconds. Only one Transaction at a time is supported by the CLI.",
	"GET_TXN_ID - output the current Transaction's Id (if a Transaction is running)",
	"FLUSH - flush the current Transaction (if a Transaction is running)",
	"PING [{lease}] - refresh the time remaining on the Transaction (if a Transaction is running). The lease must end within the Transaction's maxExecutionTime, so with BEGIN defaults a default PING is refused.",
	"COMMIT - commit the Transaction (if a Transaction is running)",
	"ABORT - abort the Transaction (if a Transaction is running)",
	"STATUS - check the status of the Transaction (if a Transaction is running)",
	"HELP - print out a list of commands.",
	"QUIT - terminate the program.",
}
