// Copyright 2024 The lrucache Authors
// This file is part of the lrucache library.
//
// The lrucache library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The lrucache library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the lrucache library. If not, see <http://www.gnu.org/licenses/>.

// Package exp serves gathered Prometheus metrics over HTTP, both in the
// Prometheus text format and mirrored into expvar.
package exp

import (
	"expvar"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/lrunative/lrucache/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/rs/cors"
)

type exp struct {
	expvarLock sync.Mutex // expvar panics if you try to register the same var twice, so we must probe it safely
	gatherer   prometheus.Gatherer
}

func (exp *exp) expHandler(w http.ResponseWriter, r *http.Request) {
	// load our variables into expvar
	if err := exp.syncToExpvar(); err != nil {
		log.Warn("Failed to gather metrics", "err", err)
	}

	// now just run the official expvar handler code (which is not publicly callable, so pasted inline)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	fmt.Fprintf(w, "{\n")
	first := true
	expvar.Do(func(kv expvar.KeyValue) {
		if !first {
			fmt.Fprintf(w, ",\n")
		}
		first = false
		fmt.Fprintf(w, "%q: %s", kv.Key, kv.Value)
	})
	fmt.Fprintf(w, "\n}\n")
}

// Exp will register an expvar powered metrics handler with http.DefaultServeMux
// on "/debug/metrics", and a Prometheus handler on "/debug/metrics/prometheus".
func Exp(g prometheus.Gatherer) {
	h := ExpHandler(g)
	// this would cause a panic:
	// panic: http: multiple registrations for /debug/vars
	// http.HandleFunc("/debug/vars", e.expHandler)
	// haven't found an elegant way, so just use a different endpoint
	http.Handle("/debug/metrics", h)
	http.Handle("/debug/metrics/prometheus", PrometheusHandler(g))
}

// ExpHandler will return an expvar powered metrics handler.
func ExpHandler(g prometheus.Gatherer) http.Handler {
	e := &exp{gatherer: g}
	return http.HandlerFunc(e.expHandler)
}

// PrometheusHandler serves the gathered metrics in the Prometheus text format.
func PrometheusHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// NewServeMux returns a mux exposing both metrics endpoints.
func NewServeMux(g prometheus.Gatherer) *http.ServeMux {
	m := http.NewServeMux()
	m.Handle("/debug/metrics", ExpHandler(g))
	m.Handle("/debug/metrics/prometheus", PrometheusHandler(g))
	return m
}

// Setup starts a dedicated metrics server at the given address. Browsers
// from the given origins may read the endpoints.
// This function enables metrics reporting separate from pprof.
func Setup(address string, g prometheus.Gatherer, corsOrigins []string) *http.Server {
	srv := &http.Server{Addr: address, Handler: newCorsHandler(NewServeMux(g), corsOrigins)}
	log.Info("Starting metrics server", "addr", fmt.Sprintf("http://%s/debug/metrics", address))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failure in running metrics server", "err", err)
		}
	}()
	return srv
}

func newCorsHandler(srv http.Handler, allowedOrigins []string) http.Handler {
	// disable CORS support if user has not specified a custom CORS configuration
	if len(allowedOrigins) == 0 {
		return srv
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{"*"},
		MaxAge:         600,
	})
	return c.Handler(srv)
}

func (exp *exp) getFloat(name string) *expvar.Float {
	var v *expvar.Float
	exp.expvarLock.Lock()
	p := expvar.Get(name)
	if p != nil {
		v = p.(*expvar.Float)
	} else {
		v = new(expvar.Float)
		expvar.Publish(name, v)
	}
	exp.expvarLock.Unlock()
	return v
}

// expvarName flattens a metric family and its labels into a dotted expvar key,
// e.g. lrucache_entries{cache="main"} becomes lrucache_entries.cache.main.
func expvarName(family string, m *dto.Metric) string {
	var b strings.Builder
	b.WriteString(family)
	for _, pair := range m.GetLabel() {
		b.WriteByte('.')
		b.WriteString(pair.GetName())
		b.WriteByte('.')
		b.WriteString(pair.GetValue())
	}
	return b.String()
}

func (exp *exp) syncToExpvar() error {
	families, err := exp.gatherer.Gather()
	for _, family := range families {
		for _, m := range family.GetMetric() {
			name := expvarName(family.GetName(), m)
			switch family.GetType() {
			case dto.MetricType_COUNTER:
				exp.getFloat(name).Set(m.GetCounter().GetValue())
			case dto.MetricType_GAUGE:
				exp.getFloat(name).Set(m.GetGauge().GetValue())
			case dto.MetricType_UNTYPED:
				exp.getFloat(name).Set(m.GetUntyped().GetValue())
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				exp.getFloat(name + ".count").Set(float64(h.GetSampleCount()))
				exp.getFloat(name + ".sum").Set(h.GetSampleSum())
			case dto.MetricType_SUMMARY:
				s := m.GetSummary()
				exp.getFloat(name + ".count").Set(float64(s.GetSampleCount()))
				exp.getFloat(name + ".sum").Set(s.GetSampleSum())
				for _, q := range s.GetQuantile() {
					exp.getFloat(fmt.Sprintf("%s.%g-quantile", name, q.GetQuantile())).Set(q.GetValue())
				}
			}
		}
	}
	return err
}
