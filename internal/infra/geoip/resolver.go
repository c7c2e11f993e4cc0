// Package geoip maps shopper IP addresses to ISO country codes so the
// storefront can pick a default locale when the request carries no hint.
package geoip

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// ErrUnavailable is returned when the resolver has no database loaded.
var ErrUnavailable = errors.New("geoip resolver unavailable")

type countryReader interface {
	Country(ip net.IP) (*geoip2.Country, error)
	Close() error
}

// Resolver looks up countries in a MaxMind GeoIP2 or GeoLite2 database.
type Resolver struct {
	reader countryReader
}

// NewResolver opens the database at path. An empty path disables lookups and
// returns a nil *Resolver, which is safe to Close.
func NewResolver(path string) (*Resolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}
	return &Resolver{reader: reader}, nil
}

// Lookup returns the country for a client address as seen by the HTTP layer.
// Both bare IPs and host:port pairs are accepted. Addresses that cannot be
// routed publicly (loopback, private ranges, link-local) resolve to "" without
// touching the database.
func (r *Resolver) Lookup(remote string) (string, error) {
	addr, err := parseClientAddr(remote)
	if err != nil {
		return "", err
	}
	if !addr.IsGlobalUnicast() || addr.IsPrivate() {
		return "", nil
	}
	return r.country(addr)
}

func (r *Resolver) country(addr netip.Addr) (string, error) {
	if r == nil || r.reader == nil {
		return "", ErrUnavailable
	}
	record, err := r.reader.Country(net.IP(addr.AsSlice()))
	if err != nil {
		return "", fmt.Errorf("geoip: lookup country: %w", err)
	}
	if record == nil {
		return "", nil
	}
	return record.Country.IsoCode, nil
}

// Close closes the underlying database reader.
func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}

func parseClientAddr(remote string) (netip.Addr, error) {
	remote = strings.TrimSpace(remote)
	if ap, err := netip.ParseAddrPort(remote); err == nil {
		return ap.Addr().Unmap(), nil
	}
	addr, err := netip.ParseAddr(strings.Trim(remote, "[]"))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("geoip: invalid ip %q", remote)
	}
	return addr.Unmap(), nil
}
