/*
Copyright 2026 The Jishu Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"strconv"

	"github.com/gravitational/trace"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jishu-edu/jishu-client/common/auth"
)

const (
	metricsNamespace = "jishu"
	metricsSubsystem = "client"
)

type metrics struct {
	requests *prometheus.CounterVec
	refresh  *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "requests_total",
			Help:      "Number of HTTP responses received from the backend.",
		}, []string{"method", "code"}),
		refresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "token_refresh_total",
			Help:      "Number of access token refresh attempts by outcome.",
		}, []string{"result"}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.refresh} {
		if err := reg.Register(c); err != nil {
			return nil, trace.Wrap(err, "registering client metrics")
		}
	}
	return m, nil
}

func (m *metrics) observeRequest(method string, code int) {
	m.requests.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

func (m *metrics) observeRefresh(result auth.RefreshResult) {
	m.refresh.WithLabelValues(string(result)).Inc()
}
