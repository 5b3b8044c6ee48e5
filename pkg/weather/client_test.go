// Copyright 2026 © The convo Authors
// SPDX-License-Identifier: Apache-2.0
package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	stderrors "errors"

	"github.com/dmolins/convo/pkg/errors"
)

func TestCodeLabel(t *testing.T) {
	if got := codeLabel(0); got != "Clear sky" {
		t.Errorf("code 0: got %q", got)
	}
	if got := codeLabel(61); got != "Rain" {
		t.Errorf("code 61: got %q", got)
	}
	if got := codeLabel(95); got != "Thunderstorm" {
		t.Errorf("code 95: got %q", got)
	}
	if got := codeLabel(999); got != "Code 999" {
		t.Errorf("unknown code: got %q", got)
	}
}

func TestGeocode_FirstMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("name"); got != "Paris" {
			t.Errorf("unexpected name param %q", got)
		}
		if got := r.URL.Query().Get("count"); got != "1" {
			t.Errorf("unexpected count param %q", got)
		}
		w.Write([]byte(`{"results":[{"name":"Paris","country":"France","latitude":48.85,"longitude":2.35}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	loc, err := c.Geocode(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("Geocode failed: %v", err)
	}
	if loc.Name != "Paris" || loc.Country != "France" || loc.Latitude != 48.85 {
		t.Errorf("unexpected location: %+v", loc)
	}
}

func TestGeocode_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.Geocode(context.Background(), "Zzzzqx123")
	if err == nil {
		t.Fatal("expected error for zero geocoding results")
	}

	var ce *errors.Error
	if !stderrors.As(err, &ce) || ce.Code != errors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestGeocode_CachesResults(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"results":[{"name":"Berlin","country":"Germany","latitude":52.5,"longitude":13.4}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	for i := 0; i < 3; i++ {
		if _, err := c.Geocode(context.Background(), "Berlin"); err != nil {
			t.Fatalf("Geocode failed: %v", err)
		}
	}
	// Normalization: same place, different spelling, still one upstream hit.
	if _, err := c.Geocode(context.Background(), "  berlin "); err != nil {
		t.Fatalf("Geocode failed: %v", err)
	}

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected 1 upstream call, got %d", n)
	}
}

func TestCurrentByLocation(t *testing.T) {
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"name":"Madrid","country":"Spain","latitude":40.4,"longitude":-3.7}]}`))
	}))
	defer geo.Close()

	forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("current_weather") != "true" || q.Get("temperature_unit") != "celsius" {
			t.Errorf("unexpected forecast params: %v", q)
		}
		w.Write([]byte(`{"current_weather":{"temperature":21.5,"windspeed":12.0,"winddirection":180,"weathercode":61,"time":"2025-06-01T12:00"}}`))
	}))
	defer forecast.Close()

	c := NewClient(geo.URL, forecast.URL, time.Second)
	report, err := c.CurrentByLocation(context.Background(), "Madrid")
	if err != nil {
		t.Fatalf("CurrentByLocation failed: %v", err)
	}

	if report.Location != "Madrid, Spain" {
		t.Errorf("expected display location 'Madrid, Spain', got %q", report.Location)
	}
	if report.ConditionCode != 61 || report.ConditionLabel != "Rain" {
		t.Errorf("unexpected condition: %+v", report)
	}
	if report.TemperatureC != 21.5 || report.Provider != "open-meteo" {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestCurrent_DisplayLocationOmitsEmptyCountry(t *testing.T) {
	forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"current_weather":{"temperature":1,"windspeed":2,"winddirection":3,"weathercode":0,"time":"t"}}`))
	}))
	defer forecast.Close()

	c := NewClient("", forecast.URL, time.Second)
	report, err := c.Current(context.Background(), Location{Name: "Atlantis"})
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if report.Location != "Atlantis" {
		t.Errorf("expected bare name, got %q", report.Location)
	}
}

func TestCurrent_MissingCurrentWeather(t *testing.T) {
	forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer forecast.Close()

	c := NewClient("", forecast.URL, time.Second)
	_, err := c.Current(context.Background(), Location{Name: "X"})
	if err == nil {
		t.Fatal("expected error when current_weather is absent")
	}
	var ce *errors.Error
	if !stderrors.As(err, &ce) || ce.Code != errors.CodeProvider {
		t.Fatalf("expected PROVIDER_ERROR, got %v", err)
	}
}

func TestGetJSON_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.Geocode(context.Background(), "anywhere")
	if err == nil {
		t.Fatal("expected error on non-2xx status")
	}
	var ce *errors.Error
	if !stderrors.As(err, &ce) || ce.Code != errors.CodeProvider {
		t.Fatalf("expected PROVIDER_ERROR, got %v", err)
	}
}
