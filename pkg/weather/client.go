// Copyright 2026 © The convo Authors
// SPDX-License-Identifier: Apache-2.0
// Package weather provides an Open-Meteo client: free-form location
// geocoding followed by a current-conditions lookup.
package weather

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dmolins/convo/pkg/errors"
)

const geocodeCacheSize = 256

// Location is a geocoded place.
type Location struct {
	Name      string  `json:"name"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Report is the canonical current-weather shape.
type Report struct {
	Location        string  `json:"location"`
	TemperatureC    float64 `json:"temperature_c"`
	WindspeedKmh    float64 `json:"windspeed_kmh"`
	WinddirectionDg float64 `json:"winddirection_deg"`
	ConditionCode   int     `json:"condition_code"`
	ConditionLabel  string  `json:"condition_label"`
	ObservedAt      string  `json:"observed_at"`
	Provider        string  `json:"provider"`
}

// Client talks to the Open-Meteo geocoding and forecast APIs.
type Client struct {
	geocodeURL  string
	forecastURL string
	httpClient  *http.Client

	// Geocoding is pure for a given location string; results are kept in a
	// bounded LRU so repeated lookups skip the network.
	geocodeCache *lru.Cache[string, Location]
}

// NewClient creates a weather client. Empty URLs fall back to the public
// Open-Meteo endpoints.
func NewClient(geocodeURL, forecastURL string, timeout time.Duration) *Client {
	if geocodeURL == "" {
		geocodeURL = "https://geocoding-api.open-meteo.com/v1/search"
	}
	if forecastURL == "" {
		forecastURL = "https://api.open-meteo.com/v1/forecast"
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	cache, _ := lru.New[string, Location](geocodeCacheSize)
	return &Client{
		geocodeURL:   geocodeURL,
		forecastURL:  forecastURL,
		httpClient:   &http.Client{Timeout: timeout},
		geocodeCache: cache,
	}
}

type geocodeResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Country   string  `json:"country"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

// Geocode resolves a free-form location string to its single best match.
// Returns CodeNotFound when the provider has no results for it.
func (c *Client) Geocode(ctx context.Context, location string) (Location, error) {
	key := strings.ToLower(strings.TrimSpace(location))
	if loc, ok := c.geocodeCache.Get(key); ok {
		return loc, nil
	}

	q := url.Values{}
	q.Set("name", location)
	q.Set("count", "1")

	var payload geocodeResponse
	if err := c.getJSON(ctx, c.geocodeURL+"?"+q.Encode(), &payload); err != nil {
		return Location{}, err
	}

	if len(payload.Results) == 0 {
		return Location{}, errors.New(errors.CodeNotFound,
			"could not find coordinates for '"+location+"'", nil).
			WithContext("location", location)
	}

	r0 := payload.Results[0]
	loc := Location{
		Name:      r0.Name,
		Country:   r0.Country,
		Latitude:  r0.Latitude,
		Longitude: r0.Longitude,
	}
	c.geocodeCache.Add(key, loc)
	return loc, nil
}

type forecastResponse struct {
	CurrentWeather *struct {
		Temperature   float64 `json:"temperature"`
		Windspeed     float64 `json:"windspeed"`
		Winddirection float64 `json:"winddirection"`
		Weathercode   int     `json:"weathercode"`
		Time          string  `json:"time"`
	} `json:"current_weather"`
}

// Current fetches current conditions for the given coordinates.
func (c *Client) Current(ctx context.Context, loc Location) (*Report, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	q.Set("current_weather", "true")
	q.Set("temperature_unit", "celsius")
	q.Set("windspeed_unit", "kmh")
	q.Set("timezone", "auto")

	var payload forecastResponse
	if err := c.getJSON(ctx, c.forecastURL+"?"+q.Encode(), &payload); err != nil {
		return nil, err
	}

	if payload.CurrentWeather == nil {
		return nil, errors.New(errors.CodeProvider, "open-meteo did not return current_weather", nil)
	}

	cw := payload.CurrentWeather
	display := loc.Name
	if loc.Country != "" {
		display += ", " + loc.Country
	}

	return &Report{
		Location:        display,
		TemperatureC:    cw.Temperature,
		WindspeedKmh:    cw.Windspeed,
		WinddirectionDg: cw.Winddirection,
		ConditionCode:   cw.Weathercode,
		ConditionLabel:  codeLabel(cw.Weathercode),
		ObservedAt:      cw.Time,
		Provider:        "open-meteo",
	}, nil
}

// CurrentByLocation geocodes location and fetches its current conditions.
func (c *Client) CurrentByLocation(ctx context.Context, location string) (*Report, error) {
	loc, err := c.Geocode(ctx, location)
	if err != nil {
		return nil, err
	}
	return c.Current(ctx, loc)
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.New(errors.CodeProvider, "building weather request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.New(errors.CodeProvider, "weather provider call failed", err).
			WithRecoverable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.CodeProvider, "weather provider returned status "+strconv.Itoa(resp.StatusCode), nil).
			WithContext("status", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.New(errors.CodeProvider, "decoding weather response", err)
	}
	return nil
}
