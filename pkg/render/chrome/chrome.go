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

// Package chrome implements the render collaborator with a headless Chrome
// instance driven over the DevTools protocol
package chrome

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/previewcache/previewd/pkg/render"
	"github.com/previewcache/previewd/pkg/render/options"
)

var _ render.Renderer = &Renderer{}

// Renderer renders pages with a headless Chrome instance
type Renderer struct {
	timeout  time.Duration
	execPath string
}

// New returns a chrome Renderer for the provided options
func New(o *options.Options) *Renderer {
	if o == nil {
		o = options.New()
	}
	return &Renderer{
		timeout:  o.Timeout,
		execPath: o.ExecPath,
	}
}

// Render navigates a fresh browser context to the URL and captures a
// viewport screenshot. The renderer serializes nothing itself; each call
// launches an isolated context so concurrent renders cannot share page state.
func (r *Renderer) Render(ctx context.Context, url string,
	width, height int) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(width, height),
	)
	if r.execPath != "" {
		opts = append(opts, chromedp.ExecPath(r.execPath))
	}
	actx, acancel := chromedp.NewExecAllocator(ctx, opts...)
	defer acancel()
	cctx, ccancel := chromedp.NewContext(actx)
	defer ccancel()

	var buf []byte
	err := chromedp.Run(cctx,
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate(url),
		chromedp.CaptureScreenshot(&buf),
	)
	if err != nil {
		return nil, err
	}
	return buf, nil
}
