// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"net"
	"net/http"
)

// ipKeyFromAddr extracts a rate-limit key from a request remote address.
// For IPv4 addresses the key is the bare IP string. For IPv6 addresses the
// key is the /64 prefix so that a client rotating within a single /64
// subnet is still rate-limited as one source. Unparseable addresses return
// an empty string and are exempt from rate limiting.
func ipKeyFromAddr(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return ""
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return ""
	}
	// IPv4 or IPv4-mapped IPv6: use the full address as the key
	if ip4 := ip.To4(); ip4 != nil {
		return ip4.String()
	}
	// IPv6: mask to /64 prefix to handle subnet rotation
	mask := net.CIDRMask(64, 128)
	return ip.Mask(mask).String() + "/64"
}

// acquireIPSlot attempts to reserve a request slot for the given IP key. It
// returns true if the request is allowed, false if the per-IP limit has
// been reached.
func (a *Api) acquireIPSlot(ipKey string) bool {
	if ipKey == "" {
		return true // exempt (e.g. unparseable address)
	}
	a.ipRequestsMutex.Lock()
	defer a.ipRequestsMutex.Unlock()
	if a.ipRequests[ipKey] >= a.config.MaxRequestsPerIP {
		return false
	}
	a.ipRequests[ipKey]++
	return true
}

// releaseIPSlot decrements the request count for the given IP key.
func (a *Api) releaseIPSlot(ipKey string) {
	if ipKey == "" {
		return
	}
	a.ipRequestsMutex.Lock()
	defer a.ipRequestsMutex.Unlock()
	a.ipRequests[ipKey]--
	if a.ipRequests[ipKey] <= 0 {
		delete(a.ipRequests, ipKey)
	}
}

// IPRequestCount returns the current in-flight request count for an IP key.
// Exported for testing only.
func (a *Api) IPRequestCount(ipKey string) int {
	a.ipRequestsMutex.Lock()
	defer a.ipRequestsMutex.Unlock()
	return a.ipRequests[ipKey]
}

// limitRequests wraps a handler with the per-IP in-flight request limit.
func (a *Api) limitRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ipKey := ipKeyFromAddr(r.RemoteAddr)
		if !a.acquireIPSlot(ipKey) {
			a.logger.Warn(
				"rejecting request over per-IP limit",
				"remote_addr", r.RemoteAddr,
			)
			writeError(
				w,
				http.StatusTooManyRequests,
				"too many requests from this address",
			)
			return
		}
		defer a.releaseIPSlot(ipKey)
		next.ServeHTTP(w, r)
	})
}
