// Copyright 2025 OpenDesign Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	compiles        *prometheus.CounterVec
	compileDuration prometheus.Histogram
	heals           *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		compiles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vectra_compile_total",
				Help: "Compile requests by outcome",
			},
			[]string{"outcome"},
		),
		compileDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name: "vectra_compile_duration_seconds",
				Help: "Wall time of synchronous compile requests",
			},
		),
		heals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vectra_heal_total",
				Help: "Manual heal requests by outcome",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(m.compiles, m.compileDuration, m.heals)
	return m
}
