// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package offline

import (
	"time"

	"gopkg.in/confluentinc/confluent-kafka-go.v1/kafka"

	"github.com/lachlanorr/consolerw/pkg/stream"
)

type OfflineStreamProvider struct {
	mgr *Manager
}

func NewOfflineStreamProvider(brokers ...string) (*OfflineStreamProvider, error) {
	mgr, err := NewManager(brokers...)
	if err != nil {
		return nil, err
	}
	return &OfflineStreamProvider{
		mgr: mgr,
	}, nil
}

func (ostrmprov *OfflineStreamProvider) Manager() *Manager {
	return ostrmprov.mgr
}

func (ostrmprov *OfflineStreamProvider) NewProducer(brokers string, logCh chan kafka.LogEvent) (stream.Producer, error) {
	clus, err := ostrmprov.mgr.GetCluster(brokers)
	if err != nil {
		return nil, err
	}

	return NewOfflineProducer(clus), nil
}

func (ostrmprov *OfflineStreamProvider) NewTxnProducer(
	brokers string,
	transactionalId string,
	txnTimeout time.Duration,
	logCh chan kafka.LogEvent,
) (stream.Producer, error) {
	clus, err := ostrmprov.mgr.GetCluster(brokers)
	if err != nil {
		return nil, err
	}

	return NewOfflineTxnProducer(clus, transactionalId), nil
}

func (ostrmprov *OfflineStreamProvider) NewAdminClient(brokers string) (stream.AdminClient, error) {
	return ostrmprov.mgr.GetCluster(brokers)
}
