// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package consolecmd

import (
	"bytes"
	"strings"
	"testing"

	"gopkg.in/confluentinc/confluent-kafka-go.v1/kafka"

	"github.com/lachlanorr/consolerw/pkg/stream/offline"
)

func TestBrokersFromUri(t *testing.T) {
	tests := []struct {
		uri      string
		expected string
		ok       bool
	}{
		{"tcp://127.0.0.1:9092", "127.0.0.1:9092", true},
		{"tcp://a:9092,b:9092/", "a:9092,b:9092", true},
		{"localhost:9092", "localhost:9092", true},
		{"http://localhost:9092", "", false},
		{"tcp://", "", false},
		{"", "", false},
	}

	for _, tst := range tests {
		brokers, err := BrokersFromUri(tst.uri)
		if tst.ok {
			if err != nil {
				t.Fatalf("BrokersFromUri('%s') error: %s", tst.uri, err.Error())
			}
			if brokers != tst.expected {
				t.Fatalf("BrokersFromUri('%s'), expecting '%s' vs '%s'", tst.uri, tst.expected, brokers)
			}
		} else if err == nil {
			t.Fatalf("BrokersFromUri('%s') expected error, got '%s'", tst.uri, brokers)
		}
	}
}

func TestSettingsDefaults(t *testing.T) {
	consoleCmd, err := NewConsoleCmd()
	if err != nil {
		t.Fatalf("NewConsoleCmd error: %s", err.Error())
	}
	settings := consoleCmd.Settings()
	if settings.Scope != "examples" || settings.Stream != "someStream" || settings.Uri != "tcp://127.0.0.1:9092" {
		t.Fatalf("Bad defaults %+v", settings)
	}
	if settings.Backend != BACKEND_KAFKA || settings.Partitions != 1 || settings.OtelcolEndpoint != "" {
		t.Fatalf("Bad defaults %+v", settings)
	}
}

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("CONSOLERW_SCOPE", "prod")
	t.Setenv("CONSOLERW_STREAM", "orders")
	t.Setenv("CONSOLERW_PARTITIONS", "4")

	consoleCmd, err := NewConsoleCmd()
	if err != nil {
		t.Fatalf("NewConsoleCmd error: %s", err.Error())
	}
	settings := consoleCmd.Settings()
	if settings.Scope != "prod" || settings.Stream != "orders" || settings.Partitions != 4 {
		t.Fatalf("Env not applied %+v", settings)
	}
}

func TestSettingsBadEnv(t *testing.T) {
	t.Setenv("CONSOLERW_PARTITIONS", "many")

	_, err := NewConsoleCmd()
	if err == nil {
		t.Fatalf("Expected error for non numeric CONSOLERW_PARTITIONS")
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("CONSOLERW_SCOPE", "prod")

	strmprov, err := offline.NewOfflineStreamProvider("offline:9092")
	if err != nil {
		t.Fatalf("NewOfflineStreamProvider error: %s", err.Error())
	}
	out := &bytes.Buffer{}
	consoleCmd, err := NewConsoleCmd(
		WithInput(strings.NewReader("QUIT\n")),
		WithOutput(out),
		WithStreamProvider(strmprov),
	)
	if err != nil {
		t.Fatalf("NewConsoleCmd error: %s", err.Error())
	}

	err = consoleCmd.Execute([]string{"-s", "test", "--name", "flagged", "-u", "tcp://offline:9092"})
	if err != nil {
		t.Fatalf("Execute error: %s", err.Error())
	}
	if !strings.Contains(out.String(), "test/flagged >") {
		t.Fatalf("Flags not applied to prompt: %q", out.String())
	}

	clus, err := strmprov.Manager().GetCluster("offline:9092")
	if err != nil {
		t.Fatalf("GetCluster error: %s", err.Error())
	}
	_, err = clus.GetTopic("test.flagged")
	if err != nil {
		t.Fatalf("Stream not created: %s", err.Error())
	}
}

func TestUnknownBackend(t *testing.T) {
	consoleCmd, err := NewConsoleCmd(
		WithInput(strings.NewReader("QUIT\n")),
		WithOutput(&bytes.Buffer{}),
	)
	if err != nil {
		t.Fatalf("NewConsoleCmd error: %s", err.Error())
	}
	err = consoleCmd.Execute([]string{"--backend", "carrier-pigeon"})
	if err == nil {
		t.Fatalf("Expected error for unknown backend")
	}
}

func TestBadFlag(t *testing.T) {
	consoleCmd, err := NewConsoleCmd(
		WithInput(strings.NewReader("QUIT\n")),
		WithOutput(&bytes.Buffer{}),
	)
	if err != nil {
		t.Fatalf("NewConsoleCmd error: %s", err.Error())
	}
	err = consoleCmd.Execute([]string{"--no_such_flag"})
	if err == nil {
		t.Fatalf("Expected error for unknown flag")
	}
}

func TestOfflineSession(t *testing.T) {
	strmprov, err := offline.NewOfflineStreamProvider("offline:9092")
	if err != nil {
		t.Fatalf("NewOfflineStreamProvider error: %s", err.Error())
	}
	input := strings.Join([]string{
		"direct one",
		"BEGIN",
		"WRITE_EVENT in txn",
		"WRITE_EVENT_RK (k1) keyed in txn",
		"STATUS",
		"COMMIT",
		"BEGIN",
		"WRITE_EVENT dropped",
		"ABORT",
		"write_event_rk (k2) direct two",
		"QUIT",
	}, "\n") + "\n"

	out := &bytes.Buffer{}
	consoleCmd, err := NewConsoleCmd(
		WithInput(strings.NewReader(input)),
		WithOutput(out),
		WithStreamProvider(strmprov),
	)
	if err != nil {
		t.Fatalf("NewConsoleCmd error: %s", err.Error())
	}
	err = consoleCmd.Execute([]string{"-u", "tcp://offline:9092", "--partitions", "3"})
	if err != nil {
		t.Fatalf("Execute error: %s", err.Error())
	}

	for _, exp := range []string{
		"**** Wrote 'direct one'\n",
		"**** Transaction status: OPEN\n",
		"**** Transaction commit completed.\n",
		"**** Transaction abort completed.\n",
		"**** Wrote using routing key 'k2' message 'direct two'\n",
		"**** Exiting...\n",
	} {
		if !strings.Contains(out.String(), exp) {
			t.Fatalf("Missing output %q in:\n%s", exp, out.String())
		}
	}
	if strings.Contains(out.String(), "!!!! ") {
		t.Fatalf("Unexpected warning in:\n%s", out.String())
	}

	clus, err := strmprov.Manager().GetCluster("offline:9092")
	if err != nil {
		t.Fatalf("GetCluster error: %s", err.Error())
	}
	topic, err := clus.GetTopic("examples.someStream")
	if err != nil {
		t.Fatalf("GetTopic error: %s", err.Error())
	}
	if topic.PartitionCount() != 3 {
		t.Fatalf("Expected 3 partitions, got %d", topic.PartitionCount())
	}

	payloads := make(map[string]bool)
	for i := int32(0); i < topic.PartitionCount(); i++ {
		part, err := clus.GetPartition(topic.Name(), i)
		if err != nil {
			t.Fatalf("GetPartition error: %s", err.Error())
		}
		for off := int64(0); off < part.Len(); off++ {
			payloads[string(part.GetMessage(kafka.Offset(off)).Value)] = true
		}
	}
	expected := []string{"direct one", "in txn", "keyed in txn", "direct two"}
	if len(payloads) != len(expected) {
		t.Fatalf("Bad stream contents %v", payloads)
	}
	for _, exp := range expected {
		if !payloads[exp] {
			t.Fatalf("Missing '%s' in stream %v", exp, payloads)
		}
	}
}
