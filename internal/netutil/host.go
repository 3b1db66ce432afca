// Package netutil validates endpoint hosts and ports extracted from proxy URIs.
package netutil

import (
	"errors"
	"net"
	"strconv"
	"strings"
)

// IsValidIPv4 reports whether s is a dotted-quad IPv4 address in canonical
// form: four decimal octets in 0..255 without leading zeros ("01.2.3.4" is
// rejected).
func IsValidIPv4(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if p == "" || len(p) > 3 {
			return false
		}
		for i := 0; i < len(p); i++ {
			if p[i] < '0' || p[i] > '9' {
				return false
			}
		}
		if len(p) > 1 && p[0] == '0' {
			return false
		}
		n, err := strconv.Atoi(p)
		if err != nil || n > 255 {
			return false
		}
	}
	return true
}

// ValidHost accepts canonical IPv4 addresses, IPv6 literals (with or without
// brackets) and DNS-like host names. Anything made only of digits and dots is
// held to the IPv4 rules.
func ValidHost(host string) bool {
	if host == "" || len(host) > 253 {
		return false
	}
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = host[1 : len(host)-1]
	}
	if strings.Contains(host, ":") {
		ip := net.ParseIP(host)
		return ip != nil && ip.To4() == nil
	}
	if strings.Trim(host, "0123456789.") == "" {
		return IsValidIPv4(host)
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			switch {
			case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			default:
				return false
			}
		}
	}
	return true
}

// SplitHostPort splits "host:port" (IPv6 in brackets) and validates both parts.
func SplitHostPort(s string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return "", 0, err
	}
	host = strings.TrimSpace(host)
	if !ValidHost(host) {
		return "", 0, errors.New("invalid host")
	}
	port, err := ParsePort(portStr)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}

// ParsePort parses a decimal port in 1..65535.
func ParsePort(s string) (int, error) {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if p < 1 || p > 65535 {
		return 0, errors.New("port out of range")
	}
	return p, nil
}
