package main

import (
	"encoding/json"
	"errors"
	"log/slog"

	"go-sadl-decoder/models"
)

// LicenceDecoder is implemented by *document.LicenceDecoder.
type LicenceDecoder interface {
	// Decode opens a hex payload and decodes the licence record. An empty
	// version selects the key version from the payload header.
	Decode(payload string, version string) (models.DecodeResponse, error)

	KeyVersions() models.KeyVersionsResponse
}

// cachingLicenceDecoder serves repeated payloads from a ResultCache. Cache
// failures are logged and the payload is decoded as if it was never seen.
type cachingLicenceDecoder struct {
	next  LicenceDecoder
	cache ResultCache
}

func NewCachingLicenceDecoder(next LicenceDecoder, cache ResultCache) LicenceDecoder {
	if cache == nil {
		return next
	}
	if _, ok := cache.(noResultCache); ok {
		return next
	}
	return &cachingLicenceDecoder{next: next, cache: cache}
}

func (d *cachingLicenceDecoder) Decode(payload string, version string) (models.DecodeResponse, error) {
	key := CacheKey(payload, version)

	cached, err := d.cache.Get(key)
	if err == nil {
		var response models.DecodeResponse
		if err := json.Unmarshal(cached, &response); err == nil && response.Record != nil {
			slog.Debug("decode result served from cache", "version", response.Version)
			return response, nil
		}
		slog.Warn("discarding unreadable cached result")
	} else if !errors.Is(err, ErrCacheMiss) {
		slog.Warn("result cache lookup failed", "error", err)
	}

	response, err := d.next.Decode(payload, version)
	if err != nil {
		return response, err
	}

	encoded, err := json.Marshal(response)
	if err != nil {
		slog.Warn("failed to encode result for cache", "error", err)
		return response, nil
	}
	if err := d.cache.Put(key, encoded); err != nil {
		slog.Warn("failed to store result in cache", "error", err)
	}
	return response, nil
}

func (d *cachingLicenceDecoder) KeyVersions() models.KeyVersionsResponse {
	return d.next.KeyVersions()
}
