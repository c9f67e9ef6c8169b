// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metric exports vote, notifier, and HTTP metrics in the
// Prometheus format.
package metric
