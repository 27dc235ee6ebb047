package bridge

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"slate-workspace/go-backend/internal/domains/workspace/transport"
	"slate-workspace/go-backend/pkg/models"
)

var hostnamePattern = regexp.MustCompile(`^[a-zA-Z0-9.-]+$`)

type DoctorCheck struct {
	Name   string `json:"name"`
	Pass   bool   `json:"pass"`
	Reason string `json:"reason,omitempty"`
}

type DoctorReport struct {
	Ready     bool          `json:"ready"`
	Checks    []DoctorCheck `json:"checks"`
	CheckedAt time.Time     `json:"checked_at"`
}

// Doctor checks that a host is usable through this channel. Later checks are
// skipped once the host is found unreachable.
func (h *HTTPChannel) Doctor(ctx context.Context) DoctorReport {
	report := DoctorReport{
		Ready:     true,
		Checks:    make([]DoctorCheck, 0, 4),
		CheckedAt: time.Now().UTC(),
	}
	appendCheck := func(name string, pass bool, reason string) {
		report.Checks = append(report.Checks, DoctorCheck{Name: name, Pass: pass, Reason: reason})
		if !pass {
			report.Ready = false
		}
	}

	if err := validateBaseURL(h.baseURL); err != nil {
		appendCheck("address_valid", false, err.Error())
		return report
	}
	appendCheck("address_valid", true, "")

	if err := h.Probe(ctx); err != nil {
		appendCheck("host_reachable", false, err.Error())
		return report
	}
	appendCheck("host_reachable", true, "")

	var conn models.ConnectionTest
	if err := h.Call(ctx, transport.MethodTestConnection, nil, &conn); err != nil {
		appendCheck("bridge_connected", false, err.Error())
	} else {
		connected := conn.Status == models.ConnectionStatusConnected
		appendCheck("bridge_connected", connected, failReason(!connected, fmt.Sprintf("status=%q", conn.Status)))
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if _, err := h.Subscribe(streamCtx, LiveCursor); err != nil {
		appendCheck("event_stream_open", false, err.Error())
	} else {
		appendCheck("event_stream_open", true, "")
	}
	return report
}

func failReason(failed bool, reason string) string {
	if !failed {
		return ""
	}
	return reason
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("address is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("address scheme is unsupported: %q", u.Scheme)
	}
	host := u.Host
	if h, p, err := net.SplitHostPort(host); err == nil {
		host = strings.TrimSpace(h)
		port, convErr := strconv.Atoi(strings.TrimSpace(p))
		if convErr != nil || port < 1 || port > 65535 {
			return fmt.Errorf("address port is invalid: %q", p)
		}
	}
	if host == "" {
		return fmt.Errorf("address host is empty")
	}
	if ip := net.ParseIP(host); ip != nil {
		return nil
	}
	if !hostnamePattern.MatchString(host) {
		return fmt.Errorf("address host is invalid: %q", host)
	}
	return nil
}
