/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package assets resolves image sources used by scene nodes: data URLs,
// local files and http(s) URLs. Decoded images are cached per loader.
package assets

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"

	plog "proposalwriter/internal/log"
)

// ErrUnsupportedSource is returned for sources no loader scheme can handle.
var ErrUnsupportedSource = errors.New("unsupported image source")

// maxRemoteBytes bounds a single http download.
const maxRemoteBytes = 32 << 20

// Loader decodes an image from a source string.
type Loader interface {
	Load(ctx context.Context, src string) (image.Image, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, src string) (image.Image, error)

func (f LoaderFunc) Load(ctx context.Context, src string) (image.Image, error) { return f(ctx, src) }

// DefaultLoader handles data:, file:, plain paths and http(s) URLs.
// Relative paths resolve against BaseDir.
type DefaultLoader struct {
	BaseDir string
	Client  *http.Client

	mu    sync.RWMutex
	cache map[string]image.Image
	group singleflight.Group
}

// NewDefaultLoader returns a loader rooted at baseDir with a 20s http timeout.
func NewDefaultLoader(baseDir string) *DefaultLoader {
	return &DefaultLoader{
		BaseDir: baseDir,
		Client:  &http.Client{Timeout: 20 * time.Second},
		cache:   map[string]image.Image{},
	}
}

func cacheKey(src string) string {
	if len(src) < 256 {
		return src
	}
	sum := sha256.Sum256([]byte(src))
	return "sha256:" + hex.EncodeToString(sum[:])
}

// Load returns the decoded image, from cache when available. Concurrent loads
// of the same source share one decode, which runs detached from any single
// caller's cancellation; each caller still stops waiting when its own ctx ends.
func (l *DefaultLoader) Load(ctx context.Context, src string) (image.Image, error) {
	key := cacheKey(src)
	l.mu.RLock()
	img, ok := l.cache[key]
	l.mu.RUnlock()
	if ok {
		return img, nil
	}
	shared := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key, func() (any, error) {
		img, err := l.load(shared, src)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		if l.cache == nil {
			l.cache = map[string]image.Image{}
		}
		l.cache[key] = img
		l.mu.Unlock()
		return img, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			plog.WithComponent("assets").Debug("image load failed", slog.String("src", abbreviate(src)), slog.Any("err", res.Err))
			return nil, res.Err
		}
		return res.Val.(image.Image), nil
	}
}

func (l *DefaultLoader) load(ctx context.Context, src string) (image.Image, error) {
	switch {
	case src == "":
		return nil, fmt.Errorf("%w: empty", ErrUnsupportedSource)
	case strings.HasPrefix(src, "data:"):
		return DecodeDataURL(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return l.fetch(ctx, src)
	case strings.HasPrefix(src, "file://"):
		u, err := url.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", src, err)
		}
		return decodeFile(u.Path)
	case strings.Contains(src, "://"):
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, abbreviate(src))
	}
	p := src
	if !filepath.IsAbs(p) && l.BaseDir != "" {
		p = filepath.Join(l.BaseDir, p)
	}
	return decodeFile(p)
}

func (l *DefaultLoader) fetch(ctx context.Context, src string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", src, resp.StatusCode)
	}
	return decode(io.LimitReader(resp.Body, maxRemoteBytes))
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	defer f.Close()
	return decode(f)
}

func decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// DecodeDataURL decodes a base64 (or plain) data URL.
func DecodeDataURL(src string) (image.Image, error) {
	payload, err := DataURLBytes(src)
	if err != nil {
		return nil, err
	}
	return decode(bytes.NewReader(payload))
}

// DataURLBytes returns the raw payload of a data URL.
func DataURLBytes(src string) ([]byte, error) {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return nil, fmt.Errorf("%w: not a data url", ErrUnsupportedSource)
	}
	meta, data, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("%w: malformed data url", ErrUnsupportedSource)
	}
	if strings.HasSuffix(meta, ";base64") {
		b, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("decode data url: %w", err)
		}
		return b, nil
	}
	s, err := url.PathUnescape(data)
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	return []byte(s), nil
}

func abbreviate(src string) string {
	if len(src) <= 64 {
		return src
	}
	return src[:61] + "..."
}
