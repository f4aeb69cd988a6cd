// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"
	"os"

	"github.com/lachlanorr/consolerw/pkg/consolecmd"
)

func main() {
	consoleCmd, err := consolecmd.NewConsoleCmd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to read settings: %v\n", err)
		os.Exit(1)
	}
	consoleCmd.Start()
}
