/*
 * Copyright 2024 The Previewd Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package handlers provides the previewd HTTP handlers
package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/previewcache/previewd/pkg/appinfo"
	"github.com/previewcache/previewd/pkg/config"
	"github.com/previewcache/previewd/pkg/engine"
	"github.com/previewcache/previewd/pkg/observability/metrics"
	"github.com/previewcache/previewd/pkg/policy"
	ro "github.com/previewcache/previewd/pkg/render/options"
)

// CardHandleFunc serves the rendered preview card for the requested target
func CardHandleFunc(conf *config.Config, e *engine.Engine,
	chk *policy.Checker) func(http.ResponseWriter, *http.Request) {
	path := conf.Main.CardHandlerPath
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		cacheStatus := "none"
		code := http.StatusOK
		defer func() {
			elapsed := time.Since(start).Seconds()
			status := strconv.Itoa(code)
			metrics.FrontendRequestStatus.
				WithLabelValues(path, status, cacheStatus).Inc()
			metrics.FrontendRequestDuration.
				WithLabelValues(path, status, cacheStatus).Observe(elapsed)
		}()

		target, width, height, err := parseCardParams(r, conf.Renderer)
		if err != nil {
			code = http.StatusBadRequest
			sendText(w, code, "invalid request parameters")
			return
		}
		if !chk.Allowed(target) {
			code = http.StatusForbidden
			sendText(w, code, "target not allowed")
			return
		}

		result, err := e.Fetch(r.Context(), target, width, height)
		if err != nil {
			switch {
			case errors.Is(err, engine.ErrAdmissionDenied):
				code = http.StatusTooManyRequests
				w.Header().Set(NameRetryAfter, "5")
				sendText(w, code, "render capacity exhausted, try again shortly")
			default:
				code = http.StatusBadGateway
				sendText(w, code, "unable to render preview")
			}
			return
		}

		cacheStatus = result.Status.String()
		w.Header().Set(NameServer, appinfo.Server)
		w.Header().Set(NameContentType, ValueImagePNG)
		w.Header().Set(NameCacheControl, ValuePublicFresh)
		w.Header().Set(NamePreviewdResult, "status="+cacheStatus)
		w.WriteHeader(code)
		w.Write(result.Body)
	}
}

// parseCardParams extracts and validates the url, width and height query
// parameters. width/height fall back to the configured card defaults.
func parseCardParams(r *http.Request,
	o *ro.Options) (*url.URL, int, int, error) {
	qp := r.URL.Query()
	rawurl := qp.Get("url")
	if rawurl == "" {
		return nil, 0, 0, errors.New("missing url parameter")
	}
	target, err := url.Parse(rawurl)
	if err != nil || !target.IsAbs() {
		return nil, 0, 0, errors.New("unparseable target url")
	}
	width, err := parseDimension(qp.Get("width"), o.DefaultWidth, o.MaxWidth)
	if err != nil {
		return nil, 0, 0, err
	}
	height, err := parseDimension(qp.Get("height"), o.DefaultHeight, o.MaxHeight)
	if err != nil {
		return nil, 0, 0, err
	}
	return target, width, height, nil
}

func parseDimension(raw string, def, max int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 || v > max {
		return 0, errors.New("dimension out of range")
	}
	return v, nil
}

func sendText(w http.ResponseWriter, code int, body string) {
	w.Header().Set(NameContentType, ValueTextPlain)
	w.Header().Set(NameCacheControl, ValueNoCache)
	w.WriteHeader(code)
	w.Write([]byte(body))
}
