/*
Copyright 2026 The Jishu Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package lib

import (
	"net"
	"net/url"
	"strings"

	"github.com/gravitational/trace"
)

// AddrToURL turns a backend address into a base URL. An address without a scheme gets
// http when it points at this machine and https otherwise.
func AddrToURL(addr string) (*url.URL, error) {
	var (
		result *url.URL
		err    error
	)

	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		if isLoopback(addr) {
			addr = "http://" + addr
		} else {
			addr = "https://" + addr
		}
	}

	if result, err = url.Parse(addr); err != nil {
		return nil, trace.Wrap(err)
	}
	if result.Host == "" {
		return nil, trace.BadParameter("address %q has no host", addr)
	}

	// Cut off redundant default ports
	if (result.Scheme == "https" && result.Port() == "443") || (result.Scheme == "http" && result.Port() == "80") {
		result.Host = result.Hostname()
	}
	result.Path = strings.TrimRight(result.Path, "/")

	return result, nil
}

func isLoopback(addr string) bool {
	host := addr
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
