// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// MaxImageBytes is the exclusive upper bound for attached images.
const MaxImageBytes = 5 * 1024 * 1024

// AttachImage reads the image at path and stores it as the pending image,
// encoded as a data: URL. Files of MaxImageBytes or more are rejected with
// ErrImageTooLarge and leave the pending image unchanged.
func (c *Controller) AttachImage(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s: %w", path, ErrNotImage)
	}
	if info.Size() >= MaxImageBytes {
		c.logger.Info("image rejected", zap.String("file", filepath.Base(path)), zap.Int64("bytes", info.Size()))
		return ErrImageTooLarge
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	// The file may have grown since Stat
	data, err := io.ReadAll(io.LimitReader(f, MaxImageBytes))
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	return c.AttachImageData(filepath.Base(path), data)
}

// AttachImageData stores data as the pending image. name is only used for
// display and as a MIME hint.
func (c *Controller) AttachImageData(name string, data []byte) error {
	if len(data) >= MaxImageBytes {
		return ErrImageTooLarge
	}
	mimeType := imageMIME(name, data)
	if mimeType == "" {
		return fmt.Errorf("%s: %w", name, ErrNotImage)
	}

	url := EncodeDataURL(mimeType, data)

	c.mu.Lock()
	c.state.PendingImage = url
	c.state.PendingImageName = name
	c.mu.Unlock()

	c.logger.Debug("image attached", zap.String("file", name), zap.String("mime", mimeType), zap.Int("bytes", len(data)))
	return nil
}

// EncodeDataURL returns data as a base64 data: URL.
func EncodeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// imageMIME sniffs the content first and falls back to the file extension.
// It returns "" when neither identifies an image.
func imageMIME(name string, data []byte) string {
	if sniffed := http.DetectContentType(data); strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); strings.HasPrefix(byExt, "image/") {
		if i := strings.IndexByte(byExt, ';'); i >= 0 {
			byExt = byExt[:i]
		}
		return byExt
	}
	return ""
}
