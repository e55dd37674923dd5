// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	flowNamespace      = "flow"
	subsystemTransform = "transform"

	statusLabelName      = "status"
	cacheResultLabelName = "result"

	SuccessLabel = "success"
	FailLabel    = "fail"
	HitLabel     = "hit"
	MissLabel    = "miss"
)

var (
	once sync.Once

	PlanTranslateTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: flowNamespace,
			Subsystem: subsystemTransform,
			Name:      "plan_translate_total",
			Help:      "Total number of substrait plans translated, by outcome.",
		}, []string{
			statusLabelName,
		})

	PlanTranslateLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: flowNamespace,
			Subsystem: subsystemTransform,
			Name:      "plan_translate_latency_seconds",
			Help:      "Latency of translating one substrait plan.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 16),
		})

	ConstantFoldTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: flowNamespace,
			Subsystem: subsystemTransform,
			Name:      "constant_fold_total",
			Help:      "Total number of function calls folded into literals at translation time.",
		})

	PlanCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: flowNamespace,
			Subsystem: subsystemTransform,
			Name:      "plan_cache_total",
			Help:      "Plan cache lookups, by result.",
		}, []string{
			cacheResultLabelName,
		})
)

// RegisterFlowMetrics registers the translator metrics.
func RegisterFlowMetrics(registry *prometheus.Registry) {
	once.Do(func() {
		registry.MustRegister(PlanTranslateTotal)
		registry.MustRegister(PlanTranslateLatency)
		registry.MustRegister(ConstantFoldTotal)
		registry.MustRegister(PlanCacheTotal)
	})
}
