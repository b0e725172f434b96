// Package gzippedhttp provides middleware for handling gzip-compressed
// HTTP requests and responses, so JSON payloads between the storefront and
// its clients stay small without handlers knowing about encodings.
package gzippedhttp

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		return gzip.NewWriter(io.Discard)
	},
}

type compressedResponseWriter struct {
	http.ResponseWriter
	zw          *gzip.Writer
	wroteHeader bool
}

func (c *compressedResponseWriter) WriteHeader(statusCode int) {
	if !c.wroteHeader {
		c.wroteHeader = true
		c.Header().Set("Content-Encoding", "gzip")
		c.Header().Del("Content-Length")
	}
	c.ResponseWriter.WriteHeader(statusCode)
}

func (c *compressedResponseWriter) Write(b []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	return c.zw.Write(b)
}

type decompressedReader struct {
	body io.ReadCloser
	zr   *gzip.Reader
}

func (d *decompressedReader) Read(p []byte) (int, error) {
	return d.zr.Read(p)
}

func (d *decompressedReader) Close() error {
	if err := d.zr.Close(); err != nil {
		return err
	}
	return d.body.Close()
}

// UngzipRequest transparently decompresses request bodies sent with
// Content-Encoding: gzip before they reach the handlers.
func UngzipRequest(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if strings.Contains(request.Header.Get("Content-Encoding"), "gzip") {
			zr, err := gzip.NewReader(request.Body)
			if err != nil {
				response.WriteHeader(http.StatusBadRequest)

				return
			}
			request.Body = &decompressedReader{body: request.Body, zr: zr}
			request.Header.Del("Content-Encoding")
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}

// GzipResponse compresses response bodies for clients that advertise gzip
// support in Accept-Encoding.
func GzipResponse(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if !strings.Contains(request.Header.Get("Accept-Encoding"), "gzip") {
			h.ServeHTTP(response, request)

			return
		}

		zw := gzipWriterPool.Get().(*gzip.Writer)
		zw.Reset(response)
		defer func() {
			_ = zw.Close()
			gzipWriterPool.Put(zw)
		}()

		h.ServeHTTP(&compressedResponseWriter{ResponseWriter: response, zw: zw}, request)
	}

	return http.HandlerFunc(middleware)
}
